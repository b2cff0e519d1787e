// services/steps.go
package services

import (
	"context"
	"log"
	"math"
	"strings"
	"time"

	"klord-backend/config"
	"klord-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CertificateStepName is the final checklist entry, completed automatically
// when the certificate is generated.
const CertificateStepName = "certificate"

// DefaultStepNames is the fixed installation checklist, in order.
var DefaultStepNames = []string{
	"meeting",
	"survey",
	"staucher install",
	"civil work",
	"wiring",
	"panel installation",
	"net metering",
	"testing",
	"fully plant start",
	"subsidy process request",
	"subsidy disbursement",
	CertificateStepName,
}

// EnsureSteps returns the ordered steps for a lead, creating the default set
// atomically if none exist yet. Re-invocation with existing steps is a no-op.
func EnsureSteps(db *gorm.DB, leadID uuid.UUID) ([]models.LeadStep, error) {
	var steps []models.LeadStep
	if err := db.Where("lead_id = ?", leadID).Order("step_order asc").Find(&steps).Error; err != nil {
		return nil, err
	}
	if len(steps) > 0 {
		return steps, nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for i, name := range DefaultStepNames {
			step := models.LeadStep{LeadID: leadID, Name: name, Order: i + 1}
			if err := tx.Create(&step).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := db.Where("lead_id = ?", leadID).Order("step_order asc").Find(&steps).Error; err != nil {
		return nil, err
	}
	return steps, nil
}

// RecomputePercent persists percent = round(100*completed/total) on the lead
// and returns the progress counts. Called after every completion change.
func RecomputePercent(db *gorm.DB, leadID uuid.UUID) (completed, total, percent int, err error) {
	var steps []models.LeadStep
	if err = db.Where("lead_id = ?", leadID).Find(&steps).Error; err != nil {
		return
	}
	total = len(steps)
	for _, s := range steps {
		if s.Completed {
			completed++
		}
	}
	if total > 0 {
		percent = int(math.Round(100 * float64(completed) / float64(total)))
	}
	err = db.Model(&models.Lead{}).Where("id = ?", leadID).Update("percent", percent).Error
	return
}

// MaybeGenerateCertificate checks whether every step except "certificate" is
// complete and the lead has no certificate yet, and if so renders one,
// persists its URL and auto-completes the certificate step. Failures are
// logged and counted but never propagate; the triggering step update stands.
func MaybeGenerateCertificate(ctx context.Context, leadID uuid.UUID) {
	db := config.DB

	var lead models.Lead
	if err := db.First(&lead, "id = ?", leadID).Error; err != nil {
		log.Printf("[certificate] lead %s lookup failed: %v", leadID, err)
		return
	}
	if lead.CertificateURL != nil {
		return
	}

	var steps []models.LeadStep
	if err := db.Where("lead_id = ?", leadID).Order("step_order asc").Find(&steps).Error; err != nil {
		log.Printf("[certificate] steps lookup for lead %s failed: %v", leadID, err)
		return
	}

	var nonCert []models.LeadStep
	for _, s := range steps {
		if s.Name != CertificateStepName {
			nonCert = append(nonCert, s)
		}
	}
	if len(nonCert) == 0 {
		return
	}
	for _, s := range nonCert {
		if !s.Completed {
			return
		}
	}

	_, publicURL, err := GenerateForLead(ctx, &lead, steps)
	if err != nil {
		config.RecordCertificate("failed")
		log.Printf("[certificate] generation for lead %s failed: %v", leadID, err)
		return
	}
	config.RecordCertificate("generated")

	now := time.Now()
	if err := db.Model(&models.Lead{}).Where("id = ?", leadID).
		Updates(map[string]interface{}{
			"certificate_url":          publicURL,
			"certificate_generated_at": now,
		}).Error; err != nil {
		log.Printf("[certificate] failed to persist url for lead %s: %v", leadID, err)
		return
	}

	for _, s := range steps {
		if s.Name == CertificateStepName && !s.Completed {
			if err := db.Model(&models.LeadStep{}).Where("id = ?", s.ID).
				Updates(map[string]interface{}{"completed": true, "completed_at": now}).Error; err != nil {
				log.Printf("[certificate] failed to complete certificate step for lead %s: %v", leadID, err)
			}
		}
	}
	if _, _, _, err := RecomputePercent(db, leadID); err != nil {
		log.Printf("[certificate] failed to recompute percent for lead %s: %v", leadID, err)
	}
}

// GenerateForLead renders a certificate from the lead record and its steps.
// Shared by the auto-generation path and the admin force-regenerate endpoint.
func GenerateForLead(ctx context.Context, lead *models.Lead, steps []models.LeadStep) (string, string, error) {
	installAt := time.Now()
	var latest *time.Time
	for _, s := range steps {
		if s.Name == CertificateStepName || s.CompletedAt == nil {
			continue
		}
		if latest == nil || s.CompletedAt.After(*latest) {
			latest = s.CompletedAt
		}
	}
	if latest != nil {
		installAt = *latest
	}

	return Certificates.Generate(ctx, CertificateData{
		LeadID:        lead.ID.String(),
		CustomerName:  lead.FullName,
		ProjectType:   lead.ProjectType,
		SizedKW:       lead.SizedKW,
		InstallDate:   FormatInstallDate(installAt),
		Location:      JoinLocation(lead.City, lead.State, lead.Country),
		CertificateID: CertificateID(lead.ID.String(), time.Now()),
	})
}

// JoinLocation joins the non-empty parts with ", ".
func JoinLocation(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ", ")
}
