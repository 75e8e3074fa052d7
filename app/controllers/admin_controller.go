package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/taekup/taekup-server/app/repository"
	"github.com/taekup/taekup-server/internal/pkg/statistics"
)

// HandleAdminDashboard returns the aggregate totals plus the most recent
// activity entries.
func HandleAdminDashboard(c *fiber.Ctx) error {
	data := statistics.GetDashboardData()

	recent, err := repository.GetGlobalFactory().GetActivityLogRepository().List(0, 10)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "dashboard_failed")
	}

	return c.JSON(fiber.Map{
		"totals":          data,
		"recent_activity": recent,
	})
}

// HandleAdminClubs lists clubs with per-club stats; ?q= switches to search.
func HandleAdminClubs(c *fiber.Ctx) error {
	repos := repository.GetGlobalFactory()
	offset, limit, page := parsePagination(c)

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		clubs, err := repos.GetClubRepository().Search(q)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "club_search_failed")
		}
		return c.JSON(fiber.Map{"clubs": clubs, "query": q})
	}

	clubs, err := repos.GetClubRepository().GetWithStats(offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "club_list_failed")
	}
	total, err := repos.GetClubRepository().Count()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "club_list_failed")
	}

	return c.JSON(fiber.Map{
		"page":  page,
		"total": total,
		"clubs": clubs,
	})
}

// HandleAdminClubDetail returns one club with its students and payments.
func HandleAdminClubDetail(c *fiber.Ctx) error {
	clubID, err := strconv.ParseUint(c.Params("clubID"), 10, 32)
	if err != nil || clubID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_club_id")
	}

	repos := repository.GetGlobalFactory()
	club, err := repos.GetClubRepository().GetByID(uint(clubID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "club_not_found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "club_lookup_failed")
	}

	students, err := repos.GetStudentRepository().GetByClubID(club.ID, 0, maxPageSize)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "student_list_failed")
	}
	payments, err := repos.GetPaymentRepository().GetByClubID(club.ID, 0, maxPageSize)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "payment_list_failed")
	}

	return c.JSON(fiber.Map{
		"club":     club,
		"students": students,
		"payments": payments,
	})
}

// HandleAdminClubStudents lists a club's students; ?q= switches to search.
func HandleAdminClubStudents(c *fiber.Ctx) error {
	clubID, err := strconv.ParseUint(c.Params("clubID"), 10, 32)
	if err != nil || clubID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_club_id")
	}
	repos := repository.GetGlobalFactory()

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		students, err := repos.GetStudentRepository().Search(uint(clubID), q)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "student_search_failed")
		}
		return c.JSON(fiber.Map{"students": students, "query": q})
	}

	offset, limit, page := parsePagination(c)
	students, err := repos.GetStudentRepository().GetByClubID(uint(clubID), offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "student_list_failed")
	}
	total, err := repos.GetStudentRepository().CountByClubID(uint(clubID))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "student_list_failed")
	}

	return c.JSON(fiber.Map{
		"page":     page,
		"total":    total,
		"students": students,
	})
}

// HandleAdminPayments lists all observed payments, newest first.
func HandleAdminPayments(c *fiber.Ctx) error {
	offset, limit, page := parsePagination(c)
	repos := repository.GetGlobalFactory()

	payments, err := repos.GetPaymentRepository().List(offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "payment_list_failed")
	}
	total, err := repos.GetPaymentRepository().Count()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "payment_list_failed")
	}

	return c.JSON(fiber.Map{
		"page":     page,
		"total":    total,
		"payments": payments,
	})
}

// HandleAdminActivity lists the activity log; ?event_type= filters.
func HandleAdminActivity(c *fiber.Ctx) error {
	offset, limit, page := parsePagination(c)
	repos := repository.GetGlobalFactory()

	var err error
	var entries interface{}
	if eventType := strings.TrimSpace(c.Query("event_type")); eventType != "" {
		entries, err = repos.GetActivityLogRepository().ListByEventType(eventType, offset, limit)
	} else {
		entries, err = repos.GetActivityLogRepository().List(offset, limit)
	}
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "activity_list_failed")
	}

	return c.JSON(fiber.Map{
		"page":    page,
		"entries": entries,
	})
}

// HandleAdminEmailLogs lists notification send attempts.
func HandleAdminEmailLogs(c *fiber.Ctx) error {
	offset, limit, page := parsePagination(c)

	logs, err := repository.GetGlobalFactory().GetEmailLogRepository().List(offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "email_log_list_failed")
	}

	return c.JSON(fiber.Map{
		"page": page,
		"logs": logs,
	})
}
