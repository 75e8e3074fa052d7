package controllers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/taekup/taekup-server/app/models"
	"github.com/taekup/taekup-server/app/repository"
	"github.com/taekup/taekup-server/internal/pkg/classplan"
)

// ClassPlanRequest describes the plan to generate.
type ClassPlanRequest struct {
	ClubID          uint   `json:"club_id"`
	Focus           string `json:"focus"`
	AgeGroup        string `json:"age_group"`
	DurationMinutes int    `json:"duration_minutes"`
}

// HandleGenerateClassPlan asks the configured model for a lesson plan and
// stores the result for the club.
func HandleGenerateClassPlan(c *fiber.Ctx) error {
	var req ClassPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request_body")
	}
	if req.ClubID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "missing_club_id")
	}

	repos := repository.GetGlobalFactory()
	club, err := repos.GetClubRepository().GetByID(req.ClubID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "club_not_found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "club_lookup_failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	client := classplan.NewClientFromEnv()
	result, err := client.Generate(ctx, classplan.Request{
		ClubName:        club.Name,
		Focus:           req.Focus,
		AgeGroup:        req.AgeGroup,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		log.Errorf("class plan generation failed for club %d: %v", club.ID, err)
		return jsonError(c, fiber.StatusBadGateway, "generation_failed")
	}

	plan := &models.ClassPlan{
		ClubID:          club.ID,
		Title:           result.Title,
		Focus:           req.Focus,
		AgeGroup:        req.AgeGroup,
		DurationMinutes: req.DurationMinutes,
		Content:         result.Content,
		Model:           result.Model,
	}
	if plan.DurationMinutes <= 0 {
		plan.DurationMinutes = 60
	}
	if err := repos.GetClassPlanRepository().Create(plan); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "plan_save_failed")
	}

	return c.Status(fiber.StatusCreated).JSON(plan)
}

// HandleListClassPlans returns a club's stored plans, newest first.
func HandleListClassPlans(c *fiber.Ctx) error {
	clubID, err := strconv.ParseUint(c.Params("clubID"), 10, 32)
	if err != nil || clubID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_club_id")
	}
	offset, limit, page := parsePagination(c)

	plans, err := repository.GetGlobalFactory().GetClassPlanRepository().GetByClubID(uint(clubID), offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "plan_list_failed")
	}

	return c.JSON(fiber.Map{
		"page":  page,
		"plans": plans,
	})
}

// HandleGetClassPlan returns a single stored plan.
func HandleGetClassPlan(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_plan_id")
	}

	plan, err := repository.GetGlobalFactory().GetClassPlanRepository().GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "plan_not_found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "plan_lookup_failed")
	}
	return c.JSON(plan)
}
