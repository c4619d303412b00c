package extract

import (
	"regexp"
	"strings"
	"sync"
)

// skillVocabulary is the fixed reference vocabulary for the whole-word skill
// pass. Matching is case-insensitive; the canonical casing below is what ends
// up in the extracted record.
var skillVocabulary = []string{
	// Programming languages
	"JavaScript", "Python", "Java", "C++", "C#", "PHP", "Ruby", "Go", "Rust", "Swift",
	"Kotlin", "TypeScript", "Scala", "R", "MATLAB", "Perl", "Shell", "Bash",
	// Web technologies
	"React", "Angular", "Vue.js", "Node.js", "Express.js", "Next.js", "Nuxt.js",
	"HTML", "CSS", "SASS", "LESS", "Bootstrap", "Tailwind CSS", "jQuery",
	// Databases
	"MySQL", "PostgreSQL", "MongoDB", "Redis", "SQLite", "Oracle", "SQL Server",
	"DynamoDB", "Cassandra", "Elasticsearch", "Firebase",
	// Cloud & DevOps
	"AWS", "Azure", "Google Cloud", "Docker", "Kubernetes", "Jenkins", "GitLab CI",
	"GitHub Actions", "Terraform", "Ansible", "Chef", "Puppet",
	// Data science & ML
	"TensorFlow", "PyTorch", "Scikit-learn", "Pandas", "NumPy", "Matplotlib",
	"Seaborn", "Jupyter", "Apache Spark", "Hadoop", "Tableau", "Power BI",
	// Mobile
	"React Native", "Flutter", "iOS Development", "Android Development",
	"Xamarin", "Ionic", "Cordova",
	// Other
	"Git", "SVN", "REST API", "GraphQL", "JSON", "XML", "YAML",
	"Linux", "Windows", "macOS", "Ubuntu", "CentOS",
}

// languageVocabulary is the fixed list of human-language names matched
// whole-word, case-insensitively.
var languageVocabulary = []string{
	"English", "Spanish", "French", "German", "Italian", "Portuguese", "Russian",
	"Chinese", "Japanese", "Korean", "Arabic", "Hindi", "Dutch", "Swedish",
	"Norwegian", "Danish", "Polish", "Turkish", "Greek", "Hebrew",
}

var (
	vocabMu    sync.RWMutex
	skillTerms []vocabTerm
	langTerms  []vocabTerm
)

// vocabTerm pairs a canonical display form with its precompiled whole-word
// matcher over lowercased text.
type vocabTerm struct {
	canonical string
	re        *regexp.Regexp
}

func compileTerms(words []string) []vocabTerm {
	out := make([]vocabTerm, 0, len(words))
	for _, w := range words {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(w)) + `\b`)
		out = append(out, vocabTerm{canonical: w, re: re})
	}
	return out
}

func init() {
	skillTerms = compileTerms(skillVocabulary)
	langTerms = compileTerms(languageVocabulary)
}

// ExtendSkillVocabulary appends extra skill terms to the reference vocabulary.
// Intended for startup wiring (config overlay); it is safe for concurrent use
// but extensions applied after extraction has begun only affect later calls.
func ExtendSkillVocabulary(words []string) {
	if len(words) == 0 {
		return
	}
	extra := compileTerms(words)
	vocabMu.Lock()
	skillTerms = append(skillTerms, extra...)
	vocabMu.Unlock()
}

func currentSkillTerms() []vocabTerm {
	vocabMu.RLock()
	defer vocabMu.RUnlock()
	return skillTerms
}
