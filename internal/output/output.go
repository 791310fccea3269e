package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/credguard/backend/internal/credential"
	"github.com/credguard/backend/internal/models"
	"github.com/credguard/backend/internal/services"
)

// JSON prints v as indented JSON.
func JSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PasswordReport prints a policy check result, one violation per line.
func PasswordReport(w io.Writer, r credential.PasswordValidationResult) {
	verdict := "ok"
	if !r.Valid {
		verdict = "rejected"
	}
	fmt.Fprintf(w, "Password %s (strength: %s)\n", verdict, r.Strength)
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  - %s\n", e.Message)
	}
}

// Policy prints a password policy.
func Policy(w io.Writer, name string, p credential.PasswordPolicy) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Policy:\t%s\n", name)
	fmt.Fprintf(tw, "Min length:\t%d\n", p.MinLength)
	fmt.Fprintf(tw, "Character classes:\t%s\n", classes(p))
	fmt.Fprintf(tw, "Max age:\t%d days\n", p.MaxAgeDays)
	fmt.Fprintf(tw, "History:\t%d passwords\n", p.HistoryCount)
	fmt.Fprintf(tw, "Lockout:\t%d attempts, %d minutes\n", p.LockoutAttempts, p.LockoutDurationMinutes)
	tw.Flush()
}

func classes(p credential.PasswordPolicy) string {
	var out []string
	if p.RequireUppercase {
		out = append(out, "upper")
	}
	if p.RequireLowercase {
		out = append(out, "lower")
	}
	if p.RequireNumbers {
		out = append(out, "digit")
	}
	if p.RequireSpecialChars {
		out = append(out, "special")
	}
	if len(out) == 0 {
		return "none"
	}
	return strings.Join(out, ", ")
}

// AccountStatus prints the hardening state of one account.
func AccountStatus(w io.Writer, s *services.AccountStatus, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Email:\t%s\n", s.Email)
	fmt.Fprintf(tw, "ID:\t%s\n", s.UserID)
	if s.Tenant != "" {
		fmt.Fprintf(tw, "Tenant:\t%s\n", s.Tenant)
	}
	fmt.Fprintf(tw, "Active:\t%v\n", s.Active)
	if s.Locked && s.LockedUntil != nil {
		fmt.Fprintf(tw, "Locked:\tyes, %s remaining\n", s.LockedUntil.Sub(now).Round(time.Second))
	} else {
		fmt.Fprintf(tw, "Locked:\tno (%d attempts left)\n", s.RemainingAttempts)
	}
	if s.PasswordChangedAt != nil {
		fmt.Fprintf(tw, "Password changed:\t%s\n", RelativeTime(*s.PasswordChangedAt, now))
	}
	fmt.Fprintf(tw, "Password expiry:\t%s\n", Expiry(s.PasswordExpired, s.DaysUntilExpiration))
	fmt.Fprintf(tw, "Two-factor:\t%s\n", s.TwoFactor.State)
	if s.TwoFactor.Enabled {
		low := ""
		if s.TwoFactor.BackupCodesLow {
			low = " (low)"
		}
		fmt.Fprintf(tw, "Backup codes:\t%d%s\n", s.TwoFactor.BackupCodesRemaining, low)
	}
	tw.Flush()
}

// Expiry renders a password expiry state.
func Expiry(expired bool, days *int) string {
	switch {
	case expired:
		return "expired"
	case days == nil:
		return "never"
	case *days == 1:
		return "in 1 day"
	default:
		return fmt.Sprintf("in %d days", *days)
	}
}

// LoginResult prints the outcome of a successful login check.
func LoginResult(w io.Writer, r *services.LoginResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Login:\tok\n")
	fmt.Fprintf(tw, "Password expiry:\t%s\n", Expiry(r.PasswordExpired, r.DaysUntilExpiration))
	if r.UsedBackupCode {
		fmt.Fprintf(tw, "Backup codes left:\t%d\n", r.BackupCodesRemaining)
	}
	if r.BackupCodesLow {
		fmt.Fprintf(tw, "Warning:\tfew backup codes left, regenerate them\n")
	}
	tw.Flush()
}

// TwoFactorSetup prints enrolment material. The backup codes are shown once.
func TwoFactorSetup(w io.Writer, s *credential.TwoFactorSetup) {
	fmt.Fprintf(w, "Secret: %s\n", s.Secret)
	fmt.Fprintf(w, "URI:    %s\n", s.ProvisioningURI)
	fmt.Fprintln(w)
	BackupCodes(w, s.BackupCodes)
}

// BackupCodes prints codes two per line.
func BackupCodes(w io.Writer, codes []string) {
	fmt.Fprintln(w, "Backup codes (each works once):")
	for i := 0; i < len(codes); i += 2 {
		if i+1 < len(codes) {
			fmt.Fprintf(w, "  %s  %s\n", codes[i], codes[i+1])
		} else {
			fmt.Fprintf(w, "  %s\n", codes[i])
		}
	}
}

// AuditTable prints audit rows newest first.
func AuditTable(w io.Writer, rows []models.AuditLog, now time.Time) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No audit entries found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tACTION\tOUTCOME\tUSER")
	for _, r := range rows {
		user := "-"
		if r.UserID != nil {
			user = r.UserID.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", RelativeTime(r.CreatedAt, now), r.Action, r.Outcome, user)
	}
	tw.Flush()
}

// RelativeTime formats t relative to now (e.g. "2h ago", "3d ago").
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
