package ingest

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

var sampleCompanies = []string{
	"Google", "Microsoft", "Amazon", "Facebook", "Apple",
	"Netflix", "Uber", "Airbnb", "Spotify", "Twitter",
	"LinkedIn", "Adobe", "Salesforce", "Oracle", "IBM",
	"Intel", "AMD", "Nvidia", "Square", "Stripe",
	"PayPal", "Shopify", "Twilio", "Slack", "Zoom",
}

var sampleLocations = []string{
	"San Francisco, CA", "New York, NY", "Seattle, WA", "Austin, TX",
	"Boston, MA", "Chicago, IL", "Los Angeles, CA", "Denver, CO",
	"Atlanta, GA", "Portland, OR", "Remote", "Hybrid - NYC",
	"Hybrid - SF", "Hybrid - Seattle", "Toronto, Canada",
	"London, UK", "Berlin, Germany", "Singapore",
}

var sampleTypes = []types.JobType{
	types.JobTypeFrontend, types.JobTypeBackend, types.JobTypeFullStack,
	types.JobTypeDevOps, types.JobTypeDataEngineering, types.JobTypeMachineLearning,
	types.JobTypeMobile, types.JobTypeQATesting, types.JobTypeOther,
}

var sampleTitles = map[types.JobType][]string{
	types.JobTypeFrontend:        {"Frontend Developer", "UI Engineer", "React Developer", "Angular Developer", "Web Developer"},
	types.JobTypeBackend:         {"Backend Engineer", "Python Developer", "Java Developer", "Node.js Developer", "API Engineer"},
	types.JobTypeFullStack:       {"Full Stack Developer", "Full Stack Engineer", "Web Application Developer", "Software Engineer"},
	types.JobTypeDevOps:          {"DevOps Engineer", "Site Reliability Engineer", "Cloud Engineer", "Infrastructure Engineer"},
	types.JobTypeDataEngineering: {"Data Engineer", "ETL Developer", "Database Administrator", "Data Architect"},
	types.JobTypeMachineLearning: {"ML Engineer", "AI Researcher", "Data Scientist", "ML Ops Engineer"},
	types.JobTypeMobile:          {"iOS Developer", "Android Developer", "Mobile Engineer", "React Native Developer"},
	types.JobTypeQATesting:       {"QA Engineer", "Test Automation Engineer", "Quality Assurance Analyst", "Software Tester"},
	types.JobTypeOther:           {"Blockchain Developer", "Security Engineer", "Product Manager", "Technical Writer"},
}

var sampleSkills = map[types.JobType][]string{
	types.JobTypeFrontend:        {"javascript", "typescript", "react", "angular", "vue", "css"},
	types.JobTypeBackend:         {"python", "java", "go", "node.js", "postgres", "redis"},
	types.JobTypeFullStack:       {"javascript", "react", "node.js", "python", "sql", "docker"},
	types.JobTypeDevOps:          {"aws", "docker", "kubernetes", "terraform", "linux", "python"},
	types.JobTypeDataEngineering: {"python", "sql", "spark", "airflow", "kafka", "snowflake"},
	types.JobTypeMachineLearning: {"python", "pytorch", "tensorflow", "scikit-learn", "sql", "spark"},
	types.JobTypeMobile:          {"swift", "kotlin", "react native", "java", "firebase"},
	types.JobTypeQATesting:       {"selenium", "cypress", "python", "java", "jenkins"},
	types.JobTypeOther:           {"git", "sql", "python", "linux"},
}

const sampleWindowDays = 180

// Sample generates n synthetic posting rows spread over the 180 days up to
// now. The same seed and reference time always yield the same rows, so
// generated fixtures are reproducible.
func Sample(n int, seed int64, now time.Time) []RawRow {
	rng := rand.New(rand.NewSource(seed))
	start := now.AddDate(0, 0, -sampleWindowDays)

	rows := make([]RawRow, 0, n)
	for i := 0; i < n; i++ {
		jt := sampleTypes[rng.Intn(len(sampleTypes))]
		titles := sampleTitles[jt]

		date := start.AddDate(0, 0, rng.Intn(sampleWindowDays+1))

		salary := ""
		if rng.Float64() > 0.3 {
			salary = fmt.Sprintf("$%d,000", 80+rng.Intn(121))
		}

		rows = append(rows, RawRow{
			Row:      i + 1,
			ID:       fmt.Sprintf("sample-%d", i+1),
			Date:     date.Format("2006-01-02"),
			Title:    titles[rng.Intn(len(titles))],
			JobType:  string(jt),
			Company:  sampleCompanies[rng.Intn(len(sampleCompanies))],
			Location: sampleLocations[rng.Intn(len(sampleLocations))],
			Salary:   salary,
			Skills:   pickSkills(rng, sampleSkills[jt]),
		})
	}
	return rows
}

// pickSkills draws two to four distinct skills from the pool, joined with
// the separator SplitSkills prefers.
func pickSkills(rng *rand.Rand, pool []string) string {
	k := 2 + rng.Intn(3)
	if k > len(pool) {
		k = len(pool)
	}
	perm := rng.Perm(len(pool))
	out := ""
	for i := 0; i < k; i++ {
		if i > 0 {
			out += ";"
		}
		out += pool[perm[i]]
	}
	return out
}
