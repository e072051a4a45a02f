package nlp

import (
	"regexp"
	"strings"
)

var (
	reSkillNoise = regexp.MustCompile(`[^\p{L}\p{N}+#./ ]+`)
	reSpaces     = regexp.MustCompile(`\s+`)
)

// NormalizeSkill приводит навык к ключу для сравнения:
// - нижний регистр
// - убирает пунктуацию, кроме + # . / (C++, C#, Node.js, CI/CD)
// - схлопывает пробелы
func NormalizeSkill(skill string) string {
	s := strings.ToLower(skill)
	s = reSpaces.ReplaceAllString(s, " ")
	s = reSkillNoise.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.Trim(s, " .")
}
