package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/peerhub-dev/peerhub/db"
	"github.com/peerhub-dev/peerhub/internal/models"
	"gorm.io/gorm"
)

type ProjectResponse struct {
	ID          uint     `json:"id"`
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Circle      int      `json:"circle"`
	MinTeam     int      `json:"minTeam"`
	MaxTeam     int      `json:"maxTeam"`
	IsOuterCore bool     `json:"isOuterCore"`
	Curricula   []string `json:"curricula"`
}

func projectResponse(project *models.Project) ProjectResponse {
	curricula := make([]string, 0, len(project.Curricula))
	for _, c := range project.Curricula {
		curricula = append(curricula, c.Name)
	}

	return ProjectResponse{
		ID:          project.ID,
		Slug:        project.Slug,
		Name:        project.Name,
		Circle:      project.Circle,
		MinTeam:     project.MinTeam,
		MaxTeam:     project.MaxTeam,
		IsOuterCore: project.IsOuterCore,
		Curricula:   curricula,
	}
}

// GetProjects lists the catalog, optionally filtered by circle and
// curriculum track.
func GetProjects(ctx *gin.Context) {
	query := db.DB.Preload("Curricula").Order("circle ASC, name ASC")

	if raw := ctx.Query("circle"); raw != "" {
		circle, err := strconv.Atoi(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid circle"})
			return
		}
		query = query.Where("circle = ?", circle)
	}

	var projects []models.Project

	if err := query.Find(&projects).Error; err != nil {
		log.Printf("Failed to fetch projects: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch projects"})
		return
	}

	curriculum := ctx.Query("curriculum")
	response := make([]ProjectResponse, 0, len(projects))

	for i := range projects {
		if curriculum != "" && !inCurriculum(&projects[i], curriculum) {
			continue
		}
		response = append(response, projectResponse(&projects[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

func inCurriculum(project *models.Project, name string) bool {
	for _, c := range project.Curricula {
		if c.Name == name {
			return true
		}
	}
	return false
}

func GetProject(ctx *gin.Context) {
	slug := ctx.Param("slug")

	var project models.Project

	err := db.DB.Preload("Curricula").Where("slug = ?", slug).First(&project).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	if err != nil {
		log.Printf("Failed to fetch project %s: %v", slug, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch project"})
		return
	}

	ctx.JSON(http.StatusOK, projectResponse(&project))
}
