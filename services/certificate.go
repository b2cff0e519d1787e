// services/certificate.go
package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrTemplateRead aborts generation; no PDF is produced without a template.
var ErrTemplateRead = errors.New("certificate template read failed")

// CertificateData carries the fields substituted into the template.
type CertificateData struct {
	LeadID        string
	CustomerName  string
	ProjectType   string
	SizedKW       float64
	InstallDate   string // pre-formatted date string
	Location      string
	CertificateID string
}

// PDFRenderer turns populated HTML into PDF bytes.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// CertificateGenerator renders the completion certificate and either uploads
// it to blob storage or leaves it under the local uploads dir.
type CertificateGenerator struct {
	TemplatePath   string
	BackgroundPath string
	UploadsDir     string
	Renderer       PDFRenderer
	Storage        *Storage
	RenderTimeout  time.Duration
}

// Certificates is the process-wide generator, configured in main.
var Certificates *CertificateGenerator

// NewCertificateGenerator wires paths from the environment with bundled
// defaults.
func NewCertificateGenerator(storage *Storage) *CertificateGenerator {
	templatePath := os.Getenv("CERTIFICATE_TEMPLATE_PATH")
	if templatePath == "" {
		templatePath = filepath.Join("templates", "certificate.html")
	}
	bgPath := os.Getenv("CERTIFICATE_BG_PATH")
	if bgPath == "" {
		bgPath = filepath.Join("templates", "assets", "certificate-bg.jpg")
	}
	return &CertificateGenerator{
		TemplatePath:   templatePath,
		BackgroundPath: bgPath,
		UploadsDir:     "uploads",
		Renderer:       &chromeRenderer{},
		Storage:        storage,
		RenderTimeout:  60 * time.Second,
	}
}

// Generate renders the certificate PDF and returns the local file path and
// the public URL. With storage configured the local PDF is removed after
// upload and the storage URL is returned instead.
func (g *CertificateGenerator) Generate(ctx context.Context, data CertificateData) (string, string, error) {
	html, err := g.buildHTML(data)
	if err != nil {
		return "", "", err
	}

	if err := os.MkdirAll(g.UploadsDir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create uploads dir: %w", err)
	}

	filename := fmt.Sprintf("%d-%d.pdf", time.Now().UnixMilli(), rand.Intn(1_000_000_000))
	outPath := filepath.Join(g.UploadsDir, filename)
	publicURL := "/uploads/" + filename

	renderCtx, cancel := context.WithTimeout(ctx, g.RenderTimeout)
	defer cancel()

	pdf, err := g.Renderer.RenderPDF(renderCtx, html)
	if err != nil {
		return "", "", fmt.Errorf("pdf render failed: %w", err)
	}
	if err := os.WriteFile(outPath, pdf, 0644); err != nil {
		return "", "", fmt.Errorf("failed to write pdf: %w", err)
	}

	if g.Storage != nil && g.Storage.Enabled() {
		key := "certificates/" + filename
		url, err := g.Storage.Upload(ctx, key, pdf, "application/pdf")
		if err != nil {
			return "", "", err
		}
		if err := os.Remove(outPath); err != nil {
			log.Printf("[certificate] failed to remove local pdf %s: %v", outPath, err)
		}
		publicURL = url
	}

	return outPath, publicURL, nil
}

// buildHTML loads the template, embeds the background image as a data URL
// and substitutes the escaped data fields.
func (g *CertificateGenerator) buildHTML(data CertificateData) (string, error) {
	raw, err := os.ReadFile(g.TemplatePath)
	if err != nil {
		log.Printf("[certificate] failed to read template at %s: %v", g.TemplatePath, err)
		return "", ErrTemplateRead
	}
	doc := string(raw)

	// A missing background degrades to none rather than failing the run.
	if img, err := os.ReadFile(g.BackgroundPath); err == nil {
		dataURL := "data:" + backgroundMIME(g.BackgroundPath) + ";base64," + base64.StdEncoding.EncodeToString(img)
		doc = strings.ReplaceAll(doc, "__BG_DATA_URL__", dataURL)
	} else {
		log.Printf("[certificate] failed to read background %s, proceeding without: %v", g.BackgroundPath, err)
		doc = strings.ReplaceAll(doc, "__BG_DATA_URL__", "")
	}

	doc = strings.ReplaceAll(doc, "{{customerName}}", html.EscapeString(data.CustomerName))
	doc = strings.ReplaceAll(doc, "{{projectType}}", html.EscapeString(data.ProjectType))
	doc = strings.ReplaceAll(doc, "{{sizedKW}}", formatKW(data.SizedKW))
	doc = strings.ReplaceAll(doc, "{{installDate}}", html.EscapeString(data.InstallDate))
	doc = strings.ReplaceAll(doc, "{{location}}", html.EscapeString(data.Location))
	doc = strings.ReplaceAll(doc, "{{certificateId}}", html.EscapeString(data.CertificateID))

	return doc, nil
}

func backgroundMIME(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	default:
		return "image/jpeg"
	}
}

func formatKW(f float64) string {
	return fmt.Sprintf("%g", f)
}

// CertificateID builds the display id: first 6 characters of the lead id,
// uppercased, joined with the last 6 digits of the current timestamp.
func CertificateID(leadID string, now time.Time) string {
	prefix := leadID
	if len(prefix) > 6 {
		prefix = prefix[:6]
	}
	millis := fmt.Sprintf("%d", now.UnixMilli())
	return strings.ToUpper(prefix) + "-" + millis[len(millis)-6:]
}

// FormatInstallDate renders dates the way the certificate shows them.
func FormatInstallDate(t time.Time) string {
	return t.Format("2 January 2006")
}
