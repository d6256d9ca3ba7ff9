package services

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"lotus_planning_backend/internal/models"
	"lotus_planning_backend/pkg/utils"
)

// EmailConfig holds the SMTP settings, read from the environment at startup.
// An empty Host disables sending entirely.
type EmailConfig struct {
	Host               string
	Port               int
	Username           string
	Password           string
	FromEmail          string
	FromName           string
	FinancialDeptEmail string
}

// EmailService sends the notification emails of the event workflow.
// All sends are best-effort: callers log failures and continue.
type EmailService interface {
	SendEventPlannedNotification(event *models.Event) error
	SendEventInvoiceNotification(event *models.Event) error
	SendFinancialInvoiceNotification(event *models.Event) error
	SendStaffAssignmentNotification(staff *models.Staff, shift *models.Shift, event *models.Event) error
}

type smtpEmailService struct {
	cfg EmailConfig
}

// NewEmailService creates a new SMTP-backed EmailService.
func NewEmailService(cfg EmailConfig) EmailService {
	return &smtpEmailService{cfg: cfg}
}

// FinancialDeptEmail exposes the configured financial-department recipient.
func (s *smtpEmailService) financialRecipient() string {
	return s.cfg.FinancialDeptEmail
}

// sendEmail delivers a single HTML email over SMTP.
// When no SMTP host is configured the send is skipped with a warning;
// this keeps local and test environments working without a mail server.
func (s *smtpEmailService) sendEmail(to, subject, htmlBody string) error {
	if s.cfg.Host == "" {
		utils.LogInfo("Email settings not configured, skipping email", map[string]interface{}{"to": to, "subject": subject})
		return nil
	}
	if to == "" {
		return fmt.Errorf("no recipient for email %q", subject)
	}

	from := s.cfg.FromEmail
	if from == "" {
		from = s.cfg.Username
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", s.cfg.FromName, from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("sending email to %s: %w", to, err)
	}
	return nil
}

func (s *smtpEmailService) SendEventPlannedNotification(event *models.Event) error {
	to := event.ContactEmailValue()
	if to == "" {
		utils.LogInfo("No contact email for event, skipping planned notification", map[string]interface{}{"event_id": event.ID})
		return nil
	}
	subject := fmt.Sprintf("Event Planning Update: %s", event.Name)
	body := buildEventEmailBody(event, "Event Planning Update",
		"Good news! We have started planning the medical first aid coverage for your event. "+
			"Our team is scheduling appropriate medical staff and preparing the first aid station setup.")
	return s.sendEmail(to, subject, body)
}

func (s *smtpEmailService) SendEventInvoiceNotification(event *models.Event) error {
	to := event.ContactEmailValue()
	if to == "" {
		utils.LogInfo("No contact email for event, skipping invoice notification", map[string]interface{}{"event_id": event.ID})
		return nil
	}
	subject := fmt.Sprintf("Invoice for Event: %s", event.Name)
	body := buildEventEmailBody(event, "Invoice Notification",
		"Your event has been completed. An invoice for the medical first aid coverage will be sent to you shortly.")
	return s.sendEmail(to, subject, body)
}

func (s *smtpEmailService) SendFinancialInvoiceNotification(event *models.Event) error {
	to := s.financialRecipient()
	if to == "" {
		utils.LogInfo("No financial department email configured, skipping invoice notification", map[string]interface{}{"event_id": event.ID})
		return nil
	}
	subject := fmt.Sprintf("Invoice Required for Event: %s", event.Name)
	body := buildEventEmailBody(event, "Invoice Required",
		fmt.Sprintf("Event %s (reference EVENT-%06d) has reached the invoicing stage. Please prepare and send the invoice to the customer.", event.Name, event.ID))
	return s.sendEmail(to, subject, body)
}

func (s *smtpEmailService) SendStaffAssignmentNotification(staff *models.Staff, shift *models.Shift, event *models.Event) error {
	subject := fmt.Sprintf("Shift Assignment: %s", event.Name)

	var sb strings.Builder
	writeEmailHeader(&sb, "Shift Assignment")
	sb.WriteString(fmt.Sprintf("<p>Hello <strong>%s</strong>,</p>", staff.FullName()))
	sb.WriteString("<p>You have been assigned to a shift. Please review the details below.</p>")
	writeDetailRow(&sb, "Shift", shift.Name)
	writeDetailRow(&sb, "Event", event.Name)
	writeDetailRow(&sb, "Location", event.Location)
	writeDetailRow(&sb, "Start", shift.StartTime.Format("Monday, January 02, 2006 15:04"))
	writeDetailRow(&sb, "End", shift.EndTime.Format("Monday, January 02, 2006 15:04"))
	sb.WriteString("<ul>")
	sb.WriteString("<li>Please arrive <strong>15 minutes early</strong> for briefing</li>")
	sb.WriteString("<li>Bring your certification documents and ID</li>")
	sb.WriteString("<li>Contact the event organizer if you cannot attend</li>")
	sb.WriteString("</ul>")
	writeEmailFooter(&sb)

	return s.sendEmail(staff.Email, subject, sb.String())
}

// --- HTML body helpers ---

func buildEventEmailBody(event *models.Event, title, intro string) string {
	var sb strings.Builder
	writeEmailHeader(&sb, title)

	if event.ContactPerson != nil && *event.ContactPerson != "" {
		sb.WriteString(fmt.Sprintf("<p>Hello <strong>%s</strong>,</p>", *event.ContactPerson))
	} else {
		sb.WriteString("<p>Hello,</p>")
	}
	sb.WriteString(fmt.Sprintf("<p>%s</p>", intro))

	writeDetailRow(&sb, "Event Name", event.Name)
	writeDetailRow(&sb, "Location", event.Location)
	writeDetailRow(&sb, "Duration", fmt.Sprintf("%s - %s",
		event.StartDate.Format("Monday, January 02, 2006 15:04"),
		event.EndDate.Format("Monday, January 02, 2006 15:04")))
	if event.Description != nil && *event.Description != "" {
		writeDetailRow(&sb, "Description", *event.Description)
	}
	writeDetailRow(&sb, "Current Status", string(event.Status))

	writeEmailFooter(&sb)
	return sb.String()
}

func writeEmailHeader(sb *strings.Builder, title string) {
	sb.WriteString("<!DOCTYPE html><html><head><meta charset='utf-8'>")
	sb.WriteString(fmt.Sprintf("<title>%s</title>", title))
	sb.WriteString("<style>body{font-family:Arial,sans-serif;line-height:1.6;color:#333;}")
	sb.WriteString(".detail-row{margin:10px 0;padding:10px;background:#f8f9fa;border-radius:4px;}")
	sb.WriteString(".detail-label{font-weight:bold;color:#495057;}")
	sb.WriteString(".footer{margin-top:20px;font-size:12px;color:#6c757d;}</style>")
	sb.WriteString("</head><body>")
	sb.WriteString(fmt.Sprintf("<h1>%s</h1>", title))
}

func writeDetailRow(sb *strings.Builder, label, value string) {
	sb.WriteString(fmt.Sprintf("<div class='detail-row'><span class='detail-label'>%s:</span> %s</div>", label, value))
}

func writeEmailFooter(sb *strings.Builder) {
	sb.WriteString("<div class='footer'>")
	sb.WriteString("<p>This is an automated notification from the Medical First Aid Event Manager.</p>")
	sb.WriteString(fmt.Sprintf("<p>Sent on %s UTC</p>", time.Now().UTC().Format("January 02, 2006 at 15:04")))
	sb.WriteString("</div></body></html>")
}
