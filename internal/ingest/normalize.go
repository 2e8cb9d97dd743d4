package ingest

import (
	"sort"
	"strconv"
	"strings"

	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

// typeKeyword maps one lowercase keyword to a job type. Keywords are matched
// on word boundaries against the type field first, then the title, in slice
// order; the first hit wins, so broader categories must come after the more
// specific ones that share vocabulary.
type typeKeyword struct {
	kw string
	jt types.JobType
}

var typeKeywords = []typeKeyword{
	{"front end", types.JobTypeFrontend},
	{"frontend", types.JobTypeFrontend},
	{"front-end", types.JobTypeFrontend},
	{"ui", types.JobTypeFrontend},
	{"ui/ux", types.JobTypeFrontend},
	{"javascript", types.JobTypeFrontend},
	{"react", types.JobTypeFrontend},
	{"angular", types.JobTypeFrontend},
	{"vue", types.JobTypeFrontend},

	{"back end", types.JobTypeBackend},
	{"backend", types.JobTypeBackend},
	{"back-end", types.JobTypeBackend},
	{"api", types.JobTypeBackend},
	{"server", types.JobTypeBackend},
	{"python", types.JobTypeBackend},
	{"java", types.JobTypeBackend},
	{"node", types.JobTypeBackend},
	{"php", types.JobTypeBackend},
	{"go", types.JobTypeBackend},
	{"golang", types.JobTypeBackend},
	{"ruby", types.JobTypeBackend},

	{"full stack", types.JobTypeFullStack},
	{"fullstack", types.JobTypeFullStack},
	{"full-stack", types.JobTypeFullStack},
	{"web developer", types.JobTypeFullStack},
	{"web engineer", types.JobTypeFullStack},
	{"mern", types.JobTypeFullStack},

	{"devops", types.JobTypeDevOps},
	{"dev ops", types.JobTypeDevOps},
	{"sre", types.JobTypeDevOps},
	{"site reliability", types.JobTypeDevOps},
	{"platform", types.JobTypeDevOps},
	{"infrastructure", types.JobTypeDevOps},
	{"cloud", types.JobTypeDevOps},
	{"aws", types.JobTypeDevOps},
	{"azure", types.JobTypeDevOps},
	{"gcp", types.JobTypeDevOps},
	{"kubernetes", types.JobTypeDevOps},
	{"k8s", types.JobTypeDevOps},
	{"docker", types.JobTypeDevOps},

	{"data engineer", types.JobTypeDataEngineering},
	{"data engineering", types.JobTypeDataEngineering},
	{"etl", types.JobTypeDataEngineering},
	{"database", types.JobTypeDataEngineering},
	{"sql", types.JobTypeDataEngineering},
	{"big data", types.JobTypeDataEngineering},
	{"data pipeline", types.JobTypeDataEngineering},
	{"data warehouse", types.JobTypeDataEngineering},

	{"machine learning", types.JobTypeMachineLearning},
	{"ml", types.JobTypeMachineLearning},
	{"ai", types.JobTypeMachineLearning},
	{"artificial intelligence", types.JobTypeMachineLearning},
	{"data science", types.JobTypeMachineLearning},
	{"data scientist", types.JobTypeMachineLearning},
	{"nlp", types.JobTypeMachineLearning},
	{"computer vision", types.JobTypeMachineLearning},
	{"deep learning", types.JobTypeMachineLearning},

	{"mobile", types.JobTypeMobile},
	{"ios", types.JobTypeMobile},
	{"android", types.JobTypeMobile},
	{"react native", types.JobTypeMobile},
	{"flutter", types.JobTypeMobile},
	{"swift", types.JobTypeMobile},
	{"kotlin", types.JobTypeMobile},
	{"app developer", types.JobTypeMobile},

	{"qa", types.JobTypeQATesting},
	{"quality assurance", types.JobTypeQATesting},
	{"testing", types.JobTypeQATesting},
	{"sdet", types.JobTypeQATesting},
	{"test", types.JobTypeQATesting},

	{"security", types.JobTypeCybersecurity},
	{"cyber", types.JobTypeCybersecurity},
	{"cybersecurity", types.JobTypeCybersecurity},
	{"pentest", types.JobTypeCybersecurity},
	{"penetration test", types.JobTypeCybersecurity},
	{"infosec", types.JobTypeCybersecurity},
	{"information security", types.JobTypeCybersecurity},

	{"game", types.JobTypeGameDev},
	{"unity", types.JobTypeGameDev},
	{"unreal", types.JobTypeGameDev},

	{"embedded", types.JobTypeEmbedded},
	{"firmware", types.JobTypeEmbedded},
	{"iot", types.JobTypeEmbedded},
	{"microcontroller", types.JobTypeEmbedded},
	{"rtos", types.JobTypeEmbedded},
	{"fpga", types.JobTypeEmbedded},

	{"ar", types.JobTypeARVR},
	{"vr", types.JobTypeARVR},
	{"xr", types.JobTypeARVR},
	{"augmented reality", types.JobTypeARVR},
	{"virtual reality", types.JobTypeARVR},
	{"mixed reality", types.JobTypeARVR},
}

// InferJobType resolves a posting's category. The explicit type field is
// tried first (exact label, then keywords); the title is the fallback.
// Nothing matching means JobTypeOther, never a rejection.
func InferJobType(typeField, title string) types.JobType {
	if jt, ok := types.ParseJobType(typeField); ok {
		return jt
	}
	if jt, ok := matchKeywords(typeField); ok {
		return jt
	}
	if jt, ok := matchKeywords(title); ok {
		return jt
	}
	return types.JobTypeOther
}

func matchKeywords(text string) (types.JobType, bool) {
	if strings.TrimSpace(text) == "" {
		return types.JobTypeOther, false
	}
	padded := " " + foldSeparators(text) + " "
	for _, tk := range typeKeywords {
		if strings.Contains(padded, " "+foldSeparators(tk.kw)+" ") {
			return tk.jt, true
		}
	}
	return types.JobTypeOther, false
}

// foldSeparators lowercases s and collapses every run of non-alphanumeric
// characters to a single space, so "QA/Testing", "qa-testing" and
// "QA Testing" all match the same keyword.
func foldSeparators(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.ToLower(s) {
		alnum := r >= 'a' && r <= 'z' || r >= '0' && r <= '9'
		if alnum {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
			continue
		}
		space = true
	}
	return b.String()
}

// skillAliases folds common spelling variants onto canonical skill tokens.
// Lookup keys are lowercase; anything absent passes through cleaned.
var skillAliases = map[string]string{
	"golang":              "go",
	"go language":         "go",
	"js":                  "javascript",
	"nodejs":              "node.js",
	"node":                "node.js",
	"ts":                  "typescript",
	"k8s":                 "kubernetes",
	"postgresql":          "postgres",
	"psql":                "postgres",
	"mongo":               "mongodb",
	"reactjs":             "react",
	"react.js":            "react",
	"vuejs":               "vue",
	"vue.js":              "vue",
	"angularjs":           "angular",
	"angular.js":          "angular",
	"nextjs":              "next.js",
	"dotnet":              ".net",
	"csharp":              "c#",
	"cpp":                 "c++",
	"aws cloud":           "aws",
	"amazon web services": "aws",
	"gcp":                 "google cloud",
	"tf":                  "terraform",
	"scss":                "css",
	"sass":                "css",
	"html5":               "html",
	"css3":                "css",
	"expressjs":           "express",
	"express.js":          "express",
	"springboot":          "spring",
	"spring boot":         "spring",
	"ruby on rails":       "rails",
	"tensor flow":         "tensorflow",
	"py torch":            "pytorch",
	"ci/cd":               "cicd",
	"ci cd":               "cicd",
}

// NormalizeSkill returns the canonical lowercase token for one raw skill
// cell entry, or "" when the entry is blank.
func NormalizeSkill(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	if canon, ok := skillAliases[s]; ok {
		return canon
	}
	return s
}

// NormalizeSkills canonicalises, deduplicates and sorts a raw skill list.
func NormalizeSkills(raw []string) []string {
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, r := range raw {
		s := NormalizeSkill(r)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// SplitSkills breaks a CSV skill cell on ";" (preferred) or "," into raw
// entries.
func SplitSkills(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	sep := ","
	if strings.Contains(cell, ";") {
		sep = ";"
	}
	return strings.Split(cell, sep)
}

// ParseSalary extracts an annual salary figure from free-form cell text.
// Handles "$120,000", "95000", "80k", and ranges like "80k-100k" or
// "$80,000 - $100,000" (range midpoint). Returns nil when nothing numeric
// can be extracted; absence is preserved, never turned into zero.
func ParseSalary(cell string) *float64 {
	s := strings.TrimSpace(cell)
	if s == "" {
		return nil
	}

	// Normalise the common range separators to a plain hyphen, then split.
	s = strings.ReplaceAll(s, "–", "-")
	s = strings.ReplaceAll(s, " to ", "-")
	parts := strings.Split(s, "-")

	var vals []float64
	for _, part := range parts {
		if v, ok := parseSalaryToken(part); ok {
			vals = append(vals, v)
		}
	}
	switch len(vals) {
	case 0:
		return nil
	case 1:
		return &vals[0]
	default:
		mid := (vals[0] + vals[len(vals)-1]) / 2
		return &mid
	}
}

func parseSalaryToken(tok string) (float64, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(tok))
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" {
		return 0, false
	}

	mult := 1.0
	if strings.HasSuffix(cleaned, "k") {
		mult = 1000
		cleaned = strings.TrimSuffix(cleaned, "k")
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v * mult, true
}

// CleanText trims and collapses internal whitespace runs to single spaces.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
