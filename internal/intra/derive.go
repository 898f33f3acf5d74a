package intra

import (
	"regexp"
	"strconv"
	"strings"
)

// Curriculum labels derived from a student's project history.
const (
	CurriculumOld     = "old"
	CurriculumNew     = "new"
	CurriculumUnknown = "unknown"
)

var circleQuestRe = regexp.MustCompile(`common-core-rank-(\d+)`)

// CurrentCircle derives the student's circle from validated common-core rank
// quests: one past the highest completed rank, zero when none are done.
func CurrentCircle(quests []QuestUser) int {
	highest := -1
	for _, q := range quests {
		if q.ValidatedAt == nil || q.Quest == nil {
			continue
		}
		m := circleQuestRe.FindStringSubmatch(q.Quest.Slug)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest + 1
}

// DetectCurriculum guesses the old (C/C++) vs new (Python) track from the
// student's project slugs. Ambiguous histories fall back to whichever of
// born2beroot and push_swap was registered first.
func DetectCurriculum(projects []ProjectUser) string {
	if len(projects) == 0 {
		return CurriculumUnknown
	}

	var hasCpp, hasPython, hasMaze, hasB2br, hasPushSwap bool
	var b2br, pushSwap *ProjectUser

	for i := range projects {
		slug := strings.ToLower(projects[i].Project.Slug)
		switch {
		case strings.Contains(slug, "cpp-module"), strings.Contains(slug, "cpp_module"):
			hasCpp = true
		case strings.Contains(slug, "python"):
			hasPython = true
		case strings.Contains(slug, "maze"):
			hasMaze = true
		case strings.Contains(slug, "born2beroot"):
			hasB2br = true
			if b2br == nil {
				b2br = &projects[i]
			}
		case strings.Contains(slug, "push_swap"), strings.Contains(slug, "push-swap"):
			hasPushSwap = true
			if pushSwap == nil {
				pushSwap = &projects[i]
			}
		}
	}

	switch {
	case hasCpp:
		return CurriculumOld
	case hasPython || hasMaze:
		return CurriculumNew
	case hasB2br && !hasPushSwap:
		return CurriculumOld
	case hasPushSwap && !hasB2br:
		return CurriculumNew
	}

	if b2br != nil && pushSwap != nil {
		if b2br.CreatedAt.Before(pushSwap.CreatedAt) {
			return CurriculumOld
		}
		return CurriculumNew
	}
	return CurriculumUnknown
}

// Grade returns the student's grade in the main cursus, empty when absent.
func Grade(cursusUsers []CursusUser) string {
	for _, cu := range cursusUsers {
		if (cu.Cursus.Slug == "42cursus" || cu.CursusID == 21) && cu.Grade != nil {
			return *cu.Grade
		}
	}
	return ""
}

// Level returns the level in the main cursus, falling back to the most
// recent cursus entry the way the intra dashboard does.
func Level(cursusUsers []CursusUser) float64 {
	for _, cu := range cursusUsers {
		if cu.Cursus.Slug == "42cursus" {
			return cu.Level
		}
	}
	if len(cursusUsers) > 0 {
		return cursusUsers[len(cursusUsers)-1].Level
	}
	return 0
}
