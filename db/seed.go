package db

import (
	"errors"

	"github.com/peerhub-dev/peerhub/internal/models"
	"gorm.io/gorm"
)

type projectSeed struct {
	slug      string
	name      string
	circle    int
	minTeam   int
	maxTeam   int
	curricula []string
}

var curriculumSeeds = []models.Curriculum{
	{Name: "old", DisplayName: "Old Curriculum (C/C++)"},
	{Name: "new", DisplayName: "New Curriculum (Python)"},
}

var projectSeeds = []projectSeed{
	{"libft", "Libft", 0, 1, 1, []string{"old", "new"}},

	{"get_next_line", "get_next_line", 1, 1, 1, []string{"old", "new"}},
	{"ft_printf", "ft_printf", 1, 1, 1, []string{"old", "new"}},

	{"born2beroot", "Born2beroot", 2, 1, 1, []string{"old", "new"}},
	{"push_swap", "push_swap", 2, 1, 1, []string{"old", "new"}},
	{"pipex", "pipex", 2, 1, 1, []string{"old"}},
	{"minitalk", "minitalk", 2, 1, 1, []string{"old"}},
	{"fract-ol", "fract-ol", 2, 1, 1, []string{"old"}},
	{"fdf", "FdF", 2, 1, 1, []string{"old"}},
	{"so_long", "so_long", 2, 1, 1, []string{"old"}},
	{"python-module-00", "Python Module 00", 2, 1, 1, []string{"new"}},
	{"python-module-01", "Python Module 01", 2, 1, 1, []string{"new"}},
	{"python-module-02", "Python Module 02", 2, 1, 1, []string{"new"}},
	{"python-module-03", "Python Module 03", 2, 1, 1, []string{"new"}},
	{"python-module-04", "Python Module 04", 2, 1, 1, []string{"new"}},
	{"python-module-05", "Python Module 05", 2, 1, 1, []string{"new"}},
	{"python-module-06", "Python Module 06", 2, 1, 1, []string{"new"}},
	{"python-module-07", "Python Module 07", 2, 1, 1, []string{"new"}},
	{"python-module-08", "Python Module 08", 2, 1, 1, []string{"new"}},
	{"python-module-09", "Python Module 09", 2, 1, 1, []string{"new"}},
	{"python-module-10", "Python Module 10", 2, 1, 1, []string{"new"}},
	{"a-maze-ing", "A-Maze-ing", 2, 2, 2, []string{"new"}},

	{"philosophers", "Philosophers", 3, 1, 1, []string{"old"}},
	{"minishell", "minishell", 3, 2, 2, []string{"old"}},
	{"codexion", "Codexion", 3, 1, 1, []string{"new"}},
	{"fly-in", "Fly-in", 3, 1, 1, []string{"new"}},
	{"call-me-maybe", "Call Me Maybe", 3, 1, 1, []string{"new"}},

	{"cub3d", "cub3D", 4, 2, 2, []string{"old"}},
	{"minirt", "miniRT", 4, 2, 2, []string{"old"}},
	{"netpractice", "NetPractice", 4, 1, 1, []string{"old", "new"}},
	{"cpp-module-00", "CPP Module 00", 4, 1, 1, []string{"old"}},
	{"cpp-module-01", "CPP Module 01", 4, 1, 1, []string{"old"}},
	{"cpp-module-02", "CPP Module 02", 4, 1, 1, []string{"old"}},
	{"cpp-module-03", "CPP Module 03", 4, 1, 1, []string{"old"}},
	{"cpp-module-04", "CPP Module 04", 4, 1, 1, []string{"old"}},
	{"pac-man", "Pac-Man", 4, 2, 2, []string{"new"}},
	{"rag-against-the-machine", "RAG against the machine", 4, 1, 1, []string{"new"}},

	{"webserv", "webserv", 5, 2, 3, []string{"old"}},
	{"ft_irc", "ft_irc", 5, 2, 3, []string{"old"}},
	{"cpp-module-05", "CPP Module 05", 5, 1, 1, []string{"old"}},
	{"cpp-module-06", "CPP Module 06", 5, 1, 1, []string{"old"}},
	{"cpp-module-07", "CPP Module 07", 5, 1, 1, []string{"old"}},
	{"cpp-module-08", "CPP Module 08", 5, 1, 1, []string{"old"}},
	{"cpp-module-09", "CPP Module 09", 5, 1, 1, []string{"old"}},
	{"inception", "Inception", 5, 1, 1, []string{"old", "new"}},
	{"agent-smith", "Agent Smith", 5, 2, 3, []string{"new"}},
	{"the-answer-protocol", "The Answer Protocol", 5, 2, 3, []string{"new"}},

	{"ft_transcendence", "ft_transcendence", 6, 4, 5, []string{"old", "new"}},
	{"42_collaborative_resume", "42 Collaborative Resume", 6, 2, 2, []string{"old", "new"}},
}

// SeedCatalog loads the curriculum and project reference data. Safe to run on
// every startup; existing rows are corrected in place.
func SeedCatalog() error {
	curricula := make(map[string]models.Curriculum, len(curriculumSeeds))

	for _, seed := range curriculumSeeds {
		var curriculum models.Curriculum
		err := DB.Where(models.Curriculum{Name: seed.Name}).
			Attrs(models.Curriculum{DisplayName: seed.DisplayName}).
			FirstOrCreate(&curriculum).Error
		if err != nil {
			return err
		}
		curricula[seed.Name] = curriculum
	}

	for _, seed := range projectSeeds {
		var project models.Project

		err := DB.Where("slug = ?", seed.slug).First(&project).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			project = models.Project{
				Slug:    seed.slug,
				Name:    seed.name,
				Circle:  seed.circle,
				MinTeam: seed.minTeam,
				MaxTeam: seed.maxTeam,
			}
			if err := DB.Create(&project).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			updates := map[string]interface{}{
				"name":     seed.name,
				"circle":   seed.circle,
				"min_team": seed.minTeam,
				"max_team": seed.maxTeam,
			}
			if err := DB.Model(&project).Updates(updates).Error; err != nil {
				return err
			}
		}

		linked := make([]models.Curriculum, 0, len(seed.curricula))
		for _, name := range seed.curricula {
			linked = append(linked, curricula[name])
		}
		if err := DB.Model(&project).Association("Curricula").Replace(&linked); err != nil {
			return err
		}
	}

	return nil
}
