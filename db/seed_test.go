package db

import (
	"testing"

	"github.com/peerhub-dev/peerhub/internal/models"
	"github.com/peerhub-dev/peerhub/internal/testutil"
)

func TestSeedCatalog(t *testing.T) {
	DB = testutil.SetupTestDB(t)

	if err := SeedCatalog(); err != nil {
		t.Fatalf("SeedCatalog failed: %v", err)
	}

	var projects []models.Project
	if err := DB.Preload("Curricula").Find(&projects).Error; err != nil {
		t.Fatalf("failed to load projects: %v", err)
	}
	if len(projects) != len(projectSeeds) {
		t.Fatalf("expected %d projects, got %d", len(projectSeeds), len(projects))
	}

	seen := map[string]bool{}
	for _, p := range projects {
		if seen[p.Slug] {
			t.Fatalf("duplicate slug %s", p.Slug)
		}
		seen[p.Slug] = true

		if p.MinTeam < 1 || p.MinTeam > p.MaxTeam {
			t.Fatalf("%s has invalid size bounds %d..%d", p.Slug, p.MinTeam, p.MaxTeam)
		}
		if len(p.Curricula) == 0 {
			t.Fatalf("%s is not linked to any curriculum", p.Slug)
		}
	}

	var minishell models.Project
	if err := DB.Preload("Curricula").Where("slug = ?", "minishell").First(&minishell).Error; err != nil {
		t.Fatalf("minishell missing from catalog: %v", err)
	}
	if minishell.MinTeam != 2 || minishell.MaxTeam != 2 {
		t.Fatalf("minishell should be a pair project, got %d..%d", minishell.MinTeam, minishell.MaxTeam)
	}
	if len(minishell.Curricula) != 1 || minishell.Curricula[0].Name != "old" {
		t.Fatalf("minishell should be old curriculum only, got %+v", minishell.Curricula)
	}
}

func TestSeedCatalogIdempotent(t *testing.T) {
	DB = testutil.SetupTestDB(t)

	if err := SeedCatalog(); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if err := SeedCatalog(); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	var projects, curricula, links int64
	DB.Model(&models.Project{}).Count(&projects)
	DB.Model(&models.Curriculum{}).Count(&curricula)
	DB.Table("project_curricula").Count(&links)

	if projects != int64(len(projectSeeds)) {
		t.Fatalf("expected %d projects after re-run, got %d", len(projectSeeds), projects)
	}
	if curricula != int64(len(curriculumSeeds)) {
		t.Fatalf("expected %d curricula after re-run, got %d", len(curriculumSeeds), curricula)
	}

	wantLinks := 0
	for _, seed := range projectSeeds {
		wantLinks += len(seed.curricula)
	}
	if links != int64(wantLinks) {
		t.Fatalf("expected %d curriculum links after re-run, got %d", wantLinks, links)
	}
}

func TestSeedCatalogCorrectsDrift(t *testing.T) {
	DB = testutil.SetupTestDB(t)

	if err := SeedCatalog(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	// Simulate an out-of-band edit; the next run restores the catalog.
	if err := DB.Model(&models.Project{}).Where("slug = ?", "minishell").
		Updates(map[string]interface{}{"min_team": 1, "max_team": 5}).Error; err != nil {
		t.Fatalf("failed to drift: %v", err)
	}

	if err := SeedCatalog(); err != nil {
		t.Fatalf("re-seed failed: %v", err)
	}

	var minishell models.Project
	if err := DB.Where("slug = ?", "minishell").First(&minishell).Error; err != nil {
		t.Fatalf("minishell missing: %v", err)
	}
	if minishell.MinTeam != 2 || minishell.MaxTeam != 2 {
		t.Fatalf("expected drift to be corrected to 2..2, got %d..%d", minishell.MinTeam, minishell.MaxTeam)
	}
}
