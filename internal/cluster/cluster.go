package cluster

import (
	"sort"

	"github.com/erickmeikoki/job-trends-data/internal/bucket"
	"github.com/erickmeikoki/job-trends-data/internal/config"
	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

// edge is one undirected co-occurrence edge with a < b.
type edge struct {
	a, b   string
	weight int
}

// Clusters builds the thresholded co-occurrence graph over the records'
// skill sets and returns its connected components. Output order is size
// descending, representative ascending; IDs follow that order.
func Clusters(records []types.JobRecord, cfg config.ClusterConfig) []types.SkillCluster {
	nodes := supportedSkills(records, cfg.MinSupport)
	if len(nodes) == 0 {
		return nil
	}
	nodeSet := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		nodeSet[n] = struct{}{}
	}

	edges := cooccurrenceEdges(records, nodeSet, cfg.MinCooccurrence)

	adj := make(map[string][]string, len(nodes))
	for _, e := range edges {
		adj[e.a] = append(adj[e.a], e.b)
		adj[e.b] = append(adj[e.b], e.a)
	}
	for _, neighbors := range adj {
		sort.Strings(neighbors)
	}

	var clusters []types.SkillCluster
	visited := make(map[string]struct{}, len(nodes))
	for _, start := range nodes {
		if _, done := visited[start]; done {
			continue
		}
		members := component(start, adj, visited)
		clusters = append(clusters, buildCluster(members, edges))
	}

	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].Size != clusters[j].Size {
			return clusters[i].Size > clusters[j].Size
		}
		return clusters[i].Representative < clusters[j].Representative
	})
	for i := range clusters {
		clusters[i].ID = i + 1
	}
	return clusters
}

// supportedSkills returns the skills appearing in at least minSupport
// records, sorted.
func supportedSkills(records []types.JobRecord, minSupport int) []string {
	support := make(map[string]int)
	for _, rec := range records {
		for _, skill := range rec.Skills {
			support[skill]++
		}
	}
	var nodes []string
	for skill, n := range support {
		if n >= minSupport {
			nodes = append(nodes, skill)
		}
	}
	sort.Strings(nodes)
	return nodes
}

// cooccurrenceEdges counts record-level skill pairs between graph nodes and
// drops edges under the threshold. The result is sorted by (a, b).
func cooccurrenceEdges(records []types.JobRecord, nodes map[string]struct{}, minCooccurrence int) []edge {
	weights := make(map[[2]string]int)
	for _, rec := range records {
		skills := make([]string, 0, len(rec.Skills))
		for _, s := range rec.Skills {
			if _, ok := nodes[s]; ok {
				skills = append(skills, s)
			}
		}
		sort.Strings(skills)
		for i := 0; i < len(skills); i++ {
			for j := i + 1; j < len(skills); j++ {
				weights[[2]string{skills[i], skills[j]}]++
			}
		}
	}

	edges := make([]edge, 0, len(weights))
	for pair, w := range weights {
		if w >= minCooccurrence {
			edges = append(edges, edge{a: pair[0], b: pair[1], weight: w})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].a != edges[j].a {
			return edges[i].a < edges[j].a
		}
		return edges[i].b < edges[j].b
	})
	return edges
}

// component collects the connected component containing start via
// depth-first traversal over sorted adjacency lists.
func component(start string, adj map[string][]string, visited map[string]struct{}) []string {
	var members []string
	stack := []string{start}
	visited[start] = struct{}{}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		members = append(members, cur)
		for _, next := range adj[cur] {
			if _, done := visited[next]; done {
				continue
			}
			visited[next] = struct{}{}
			stack = append(stack, next)
		}
	}
	sort.Strings(members)
	return members
}

// buildCluster derives the representative and cohesion for one component.
func buildCluster(members []string, edges []edge) types.SkillCluster {
	memberSet := make(map[string]struct{}, len(members))
	for _, m := range members {
		memberSet[m] = struct{}{}
	}

	totals := make(map[string]int, len(members))
	var weightSum, edgeCount int
	for _, e := range edges {
		if _, ok := memberSet[e.a]; !ok {
			continue
		}
		if _, ok := memberSet[e.b]; !ok {
			continue
		}
		totals[e.a] += e.weight
		totals[e.b] += e.weight
		weightSum += e.weight
		edgeCount++
	}

	representative := members[0]
	for _, m := range members[1:] {
		if totals[m] > totals[representative] {
			representative = m
		}
	}

	var cohesion float64
	if edgeCount > 0 {
		cohesion = float64(weightSum) / float64(edgeCount) / float64(len(members))
	}

	return types.SkillCluster{
		Skills:         members,
		Representative: representative,
		Cohesion:       cohesion,
		Size:           len(members),
	}
}

// Emerging compares each skill's count over the trailing recent window with
// the same-length window before it. Skills new to the recent window count
// as 100% growth. Results are filtered by the recent-count floor and growth
// floor, then sorted by growth and recent count descending.
func Emerging(set *bucket.Set, cfg config.ClusterConfig) []types.EmergingSkill {
	periods := set.Periods()
	n := len(periods)
	if n < 2 {
		return nil
	}
	recent := cfg.RecentPeriods
	if recent < 1 {
		recent = 1
	}
	if recent >= n {
		recent = n - 1
	}
	priorStart := n - 2*recent
	if priorStart < 0 {
		priorStart = 0
	}

	var out []types.EmergingSkill
	for _, skill := range set.Skills() {
		series := set.SkillSeries(skill)
		recentCount := sumCounts(series[n-recent:])
		priorCount := sumCounts(series[priorStart : n-recent])

		var growth float64
		switch {
		case priorCount > 0:
			growth = float64(recentCount-priorCount) / float64(priorCount) * 100
		case recentCount > 0:
			growth = 100
		default:
			continue
		}
		if recentCount < cfg.MinRecent || growth < cfg.EmergingGrowthPct {
			continue
		}
		out = append(out, types.EmergingSkill{
			Skill:       skill,
			RecentCount: recentCount,
			PriorCount:  priorCount,
			GrowthPct:   growth,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].GrowthPct != out[j].GrowthPct {
			return out[i].GrowthPct > out[j].GrowthPct
		}
		if out[i].RecentCount != out[j].RecentCount {
			return out[i].RecentCount > out[j].RecentCount
		}
		return out[i].Skill < out[j].Skill
	})
	return out
}

func sumCounts(series []types.TimeBucket) int {
	total := 0
	for _, b := range series {
		total += b.Count
	}
	return total
}
