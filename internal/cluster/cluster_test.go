package cluster

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/erickmeikoki/job-trends-data/internal/bucket"
	"github.com/erickmeikoki/job-trends-data/internal/config"
	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

func testCfg() config.ClusterConfig {
	return config.Default().Analysis.Cluster
}

func rec(date string, skills ...string) types.JobRecord {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return types.JobRecord{Date: d.UTC(), Title: "Engineer", JobType: types.JobTypeBackend, Company: "Acme", Skills: skills}
}

func infraAndWebRecords() []types.JobRecord {
	return []types.JobRecord{
		rec("2025-01-01", "go", "docker", "kubernetes"),
		rec("2025-01-02", "go", "docker", "kubernetes"),
		rec("2025-01-03", "go", "docker", "kubernetes"),
		rec("2025-01-04", "react", "typescript"),
		rec("2025-01-05", "react", "typescript"),
		rec("2025-01-06", "react", "typescript"),
		rec("2025-01-07", "python"),
		rec("2025-01-08", "python"),
		rec("2025-01-09", "python"),
		rec("2025-01-10", "cobol"),
		rec("2025-01-11", "cobol"),
	}
}

func TestClusters_Components(t *testing.T) {
	clusters := Clusters(infraAndWebRecords(), testCfg())
	if len(clusters) != 3 {
		t.Fatalf("got %d clusters, want 3: %+v", len(clusters), clusters)
	}

	infra := clusters[0]
	if !reflect.DeepEqual(infra.Skills, []string{"docker", "go", "kubernetes"}) {
		t.Errorf("infra skills = %v", infra.Skills)
	}
	if infra.ID != 1 || infra.Size != 3 {
		t.Errorf("infra id/size = %d/%d", infra.ID, infra.Size)
	}
	// All three edges weigh 3; total weight ties resolve to the first
	// member in sorted order.
	if infra.Representative != "docker" {
		t.Errorf("infra representative = %q", infra.Representative)
	}
	if infra.Cohesion != 1 {
		t.Errorf("infra cohesion = %v, want 1", infra.Cohesion)
	}

	web := clusters[1]
	if !reflect.DeepEqual(web.Skills, []string{"react", "typescript"}) {
		t.Errorf("web skills = %v", web.Skills)
	}
	if web.Cohesion != 1.5 {
		t.Errorf("web cohesion = %v, want 1.5", web.Cohesion)
	}

	// python is well supported but never co-occurs: a singleton. cobol is
	// below min support and forms no node at all.
	single := clusters[2]
	if !reflect.DeepEqual(single.Skills, []string{"python"}) {
		t.Errorf("singleton skills = %v", single.Skills)
	}
	if single.Cohesion != 0 {
		t.Errorf("singleton cohesion = %v", single.Cohesion)
	}
	for _, c := range clusters {
		for _, s := range c.Skills {
			if s == "cobol" {
				t.Error("unsupported skill clustered")
			}
		}
	}
}

func TestClusters_InputOrderInvariance(t *testing.T) {
	records := infraAndWebRecords()
	want := Clusters(records, testCfg())

	for seed := int64(1); seed <= 5; seed++ {
		shuffled := make([]types.JobRecord, len(records))
		copy(shuffled, records)
		rand.New(rand.NewSource(seed)).Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got := Clusters(shuffled, testCfg())
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("seed %d: clusters differ\ngot:  %+v\nwant: %+v", seed, got, want)
		}
	}
}

func TestClusters_EdgeThreshold(t *testing.T) {
	// Both skills are supported but co-occur only once, below the edge
	// threshold of 2: two singletons, no joint cluster.
	records := []types.JobRecord{
		rec("2025-01-01", "go", "rust"),
		rec("2025-01-02", "go"),
		rec("2025-01-03", "go"),
		rec("2025-01-04", "rust"),
		rec("2025-01-05", "rust"),
	}
	clusters := Clusters(records, testCfg())
	if len(clusters) != 2 {
		t.Fatalf("got %d clusters, want 2: %+v", len(clusters), clusters)
	}
	for _, c := range clusters {
		if c.Size != 1 {
			t.Errorf("cluster %v size = %d, want 1", c.Skills, c.Size)
		}
	}
}

func TestClusters_Empty(t *testing.T) {
	if got := Clusters(nil, testCfg()); got != nil {
		t.Errorf("Clusters(nil) = %+v", got)
	}
}

func TestEmerging(t *testing.T) {
	var records []types.JobRecord
	add := func(month string, skill string, n int) {
		for i := 0; i < n; i++ {
			records = append(records, rec(month+"-01", skill))
		}
	}
	// rust triples, zig is brand new, java is flat, ruby stays under the
	// recent-count floor.
	add("2025-01", "rust", 1)
	add("2025-02", "rust", 1)
	add("2025-03", "rust", 3)
	add("2025-04", "rust", 3)
	add("2025-01", "java", 3)
	add("2025-02", "java", 2)
	add("2025-03", "java", 3)
	add("2025-04", "java", 2)
	add("2025-03", "zig", 2)
	add("2025-04", "zig", 1)
	add("2025-03", "ruby", 1)
	add("2025-04", "ruby", 1)

	set := bucket.Build(records, bucket.Options{})
	got := Emerging(set, testCfg())

	if len(got) != 2 {
		t.Fatalf("got %d emerging skills, want 2: %+v", len(got), got)
	}
	if got[0].Skill != "rust" || got[0].GrowthPct != 200 || got[0].RecentCount != 6 || got[0].PriorCount != 2 {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Skill != "zig" || got[1].GrowthPct != 100 || got[1].PriorCount != 0 {
		t.Errorf("second = %+v", got[1])
	}
}

func TestEmerging_TooFewPeriods(t *testing.T) {
	set := bucket.Build([]types.JobRecord{rec("2025-01-01", "go")}, bucket.Options{})
	if got := Emerging(set, testCfg()); got != nil {
		t.Errorf("Emerging = %+v, want nil", got)
	}
}
