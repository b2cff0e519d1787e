// services/amc_reminder.go
package services

import (
	"fmt"
	"log"
	"time"

	"klord-backend/models"
	"klord-backend/utils"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// AMC requests pending at least this long get a follow-up nudge.
const amcStaleDays = 3

// AmcReminderService sends an SMS nudge for service requests that have sat
// in pending state too long, and records each attempt.
type AmcReminderService struct {
	db     *gorm.DB
	sender SMSSender
}

func NewAmcReminderService(db *gorm.DB, sender SMSSender) *AmcReminderService {
	return &AmcReminderService{db: db, sender: sender}
}

// StartScheduler runs the reminder pass every day at 9 AM.
func (s *AmcReminderService) StartScheduler() {
	c := cron.New()

	c.AddFunc("0 9 * * *", func() {
		s.ProcessPendingRequests()
	})

	c.Start()
	log.Println("AMC reminder scheduler started")
}

// ProcessPendingRequests finds stale pending requests and notifies their
// customers once per day.
func (s *AmcReminderService) ProcessPendingRequests() {
	log.Println("[amc] starting pending request reminder pass")

	var requests []models.AmcRequest
	err := s.db.Preload("Customer").Preload("Lead").
		Where("status = ?", models.AmcStatusPending).
		Find(&requests).Error
	if err != nil {
		log.Printf("[amc] failed to fetch pending requests: %v", err)
		return
	}

	now := time.Now()
	for _, req := range requests {
		if utils.DaysBetween(req.CreatedAt, now) < amcStaleDays {
			continue
		}
		if req.Customer == nil || req.Customer.Mobile == "" {
			continue
		}

		message := fmt.Sprintf(
			"Hi, your Klord maintenance request from %s is still in queue. Our team will reach out shortly.",
			req.CreatedAt.Format("2 Jan"),
		)

		status := "sent"
		errorMsg := ""
		if err := s.sender.Send(req.Customer.Mobile, message); err != nil {
			log.Printf("[amc] failed to send reminder to %s: %v", req.Customer.Mobile, err)
			status = "failed"
			errorMsg = err.Error()
		}

		entry := models.NotificationLog{
			AmcRequestID: req.ID,
			CustomerID:   req.CustomerID,
			Message:      message,
			Status:       status,
			ErrorMessage: errorMsg,
			SentAt:       now,
		}
		if err := s.db.Create(&entry).Error; err != nil {
			log.Printf("[amc] failed to log reminder for request %s: %v", req.ID, err)
		}
	}

	log.Println("[amc] pending request reminder pass completed")
}
