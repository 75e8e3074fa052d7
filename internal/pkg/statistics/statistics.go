package statistics

import (
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/taekup/taekup-server/app/models"
	"github.com/taekup/taekup-server/internal/pkg/cache"
	"github.com/taekup/taekup-server/internal/pkg/database"
)

const (
	CacheKeyClubs    = "statistics:clubs:total"
	CacheKeyStudents = "statistics:students:total"
	CacheKeyPayments = "statistics:payments:total"
	CacheKeyRevenue  = "statistics:revenue:total"
	CacheExpiration  = 30 * time.Minute
)

// DashboardData holds the totals shown on the admin dashboard
type DashboardData struct {
	TotalClubs    int   `json:"total_clubs"`
	TotalStudents int   `json:"total_students"`
	TotalPayments int   `json:"total_payments"`
	TotalRevenue  int64 `json:"total_revenue"`
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache checks whether the cache is stale
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cache when the interval has elapsed
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Error updating statistics cache: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces the next read to refresh the cache
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// UpdateStatisticsCache recomputes all dashboard totals and stores them
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var totalClubs int64
	if err := db.Model(&models.Club{}).Count(&totalClubs).Error; err != nil {
		log.Printf("Error counting clubs: %v", err)
		return err
	}

	var totalStudents int64
	if err := db.Model(&models.Student{}).Count(&totalStudents).Error; err != nil {
		log.Printf("Error counting students: %v", err)
		return err
	}

	var totalPayments int64
	if err := db.Model(&models.Payment{}).Where("status = ?", models.PaymentStatusSucceeded).Count(&totalPayments).Error; err != nil {
		log.Printf("Error counting payments: %v", err)
		return err
	}

	var totalRevenue int64
	row := db.Model(&models.Payment{}).Where("status = ?", models.PaymentStatusSucceeded).
		Select("COALESCE(SUM(amount), 0)").Row()
	if err := row.Scan(&totalRevenue); err != nil {
		log.Printf("Error summing revenue: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyClubs, strconv.FormatInt(totalClubs, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(CacheKeyStudents, strconv.FormatInt(totalStudents, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(CacheKeyPayments, strconv.FormatInt(totalPayments, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(CacheKeyRevenue, strconv.FormatInt(totalRevenue, 10), CacheExpiration); err != nil {
		return err
	}

	log.Printf("Statistics updated in cache: Clubs: %d, Students: %d, Payments: %d, Revenue: %d",
		totalClubs, totalStudents, totalPayments, totalRevenue)

	return nil
}

// GetDashboardData returns all dashboard totals, refreshing the cache first
// when needed
func GetDashboardData() DashboardData {
	UpdateCacheIfNeeded()

	return DashboardData{
		TotalClubs:    getCachedInt(CacheKeyClubs),
		TotalStudents: getCachedInt(CacheKeyStudents),
		TotalPayments: getCachedInt(CacheKeyPayments),
		TotalRevenue:  int64(getCachedInt(CacheKeyRevenue)),
	}
}

func getCachedInt(key string) int {
	val, err := cache.Get(key)
	if err != nil {
		return 0
	}
	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}
	return int(count)
}
