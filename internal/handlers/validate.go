package handlers

import (
	"fmt"
	"net/mail"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"undangan/internal/models"
	"undangan/internal/slug"
)

// Validation limits for admin and guest input.
const (
	maxTemplateNameLen = 200
	maxDescriptionLen  = 2_000
	maxURLLen          = 2_000
	maxTierLen         = 50
	maxCustomerNameLen = 200
	maxSubdomainLen    = 63
	maxGuestNameLen    = 200
	maxPhoneLen        = 32
	maxEmailLen        = 254
	maxAllergiesLen    = 500
	maxCommentLen      = 1_000
	maxBulkGuests      = 500
	maxFeaturesLen     = 2_000
	maxPrice           = 1_000_000_000_000
	minPasswordLen     = 8
	maxPasswordLen     = 72
)

var tierColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}){1,2}$`)

// templateInput is the admin payload for creating or updating a template.
type templateInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Thumbnail   *string `json:"thumbnail"`
	Price       *int64  `json:"price"`
	Tier        *string `json:"tier"`
}

// validateTemplate checks template metadata and returns the first error found.
func validateTemplate(in *templateInput) string {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "Template name is required."
	}
	if utf8.RuneCountInString(name) > maxTemplateNameLen {
		return "Template name is too long (max 200 characters)."
	}
	if utf8.RuneCountInString(ptrStr(in.Description)) > maxDescriptionLen {
		return "Description is too long (max 2,000 characters)."
	}
	if len(ptrStr(in.Thumbnail)) > maxURLLen {
		return "Thumbnail URL is too long."
	}
	if in.Price != nil && (*in.Price < 0 || *in.Price > maxPrice) {
		return "Price is out of range."
	}
	if utf8.RuneCountInString(ptrStr(in.Tier)) > maxTierLen {
		return "Tier is too long (max 50 characters)."
	}
	return ""
}

// tierInput is the admin payload for creating or updating a price tier.
type tierInput struct {
	Name      string  `json:"name"`
	PriceMin  int64   `json:"price_min"`
	PriceMax  int64   `json:"price_max"`
	Features  *string `json:"features"`
	Color     *string `json:"color"`
	SortOrder int     `json:"sort_order"`
}

// normalize trims input. Blank optional fields become nil.
func (in *tierInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Features = optional(ptrStr(in.Features))
	in.Color = optional(ptrStr(in.Color))
}

// validateTier checks tier fields and returns the first error found.
func validateTier(in *tierInput) string {
	if in.Name == "" {
		return "Tier name is required."
	}
	if utf8.RuneCountInString(in.Name) > maxTierLen {
		return "Tier is too long (max 50 characters)."
	}
	if in.PriceMin < 0 || in.PriceMin > maxPrice || in.PriceMax > maxPrice {
		return "Price is out of range."
	}
	if in.PriceMax < in.PriceMin {
		return "Maximum price must not be below the minimum price."
	}
	if utf8.RuneCountInString(ptrStr(in.Features)) > maxFeaturesLen {
		return "Features are too long (max 2,000 characters)."
	}
	if in.Color != nil && !tierColorRe.MatchString(*in.Color) {
		return "Color must be a hex value such as #b8860b."
	}
	return ""
}

// passwordInput is the payload for changing the signed-in admin's password.
type passwordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// validatePassword checks a password change and returns the first error
// found. bcrypt ignores bytes past 72, so longer passwords are refused.
func validatePassword(in *passwordInput) string {
	if in.CurrentPassword == "" || in.NewPassword == "" {
		return "Current and new password are required."
	}
	if utf8.RuneCountInString(in.NewPassword) < minPasswordLen {
		return "Password must be at least 8 characters."
	}
	if len(in.NewPassword) > maxPasswordLen {
		return "Password is too long (max 72 bytes)."
	}
	return ""
}

// invoiceInput is the admin payload for creating or updating an invoice.
// TemplateID is only read on create.
type invoiceInput struct {
	CustomerName  string               `json:"customer_name"`
	TemplateID    string               `json:"template_id"`
	Subdomain     string               `json:"subdomain"`
	SubdomainMode models.SubdomainMode `json:"subdomain_mode"`
	AgreedPrice   int64                `json:"agreed_price"`
}

// normalize trims input and lower-cases the subdomain.
func (in *invoiceInput) normalize() {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.TemplateID = strings.TrimSpace(in.TemplateID)
	in.Subdomain = strings.ToLower(strings.TrimSpace(in.Subdomain))
	if in.SubdomainMode == "" {
		in.SubdomainMode = models.ModeBasic
	}
}

// validateInvoice checks invoice fields and returns the first error found.
func validateInvoice(in *invoiceInput) string {
	if in.CustomerName == "" {
		return "Customer name is required."
	}
	if utf8.RuneCountInString(in.CustomerName) > maxCustomerNameLen {
		return "Customer name is too long (max 200 characters)."
	}
	if in.Subdomain == "" {
		return "Subdomain is required."
	}
	if len(in.Subdomain) > maxSubdomainLen {
		return "Subdomain is too long (max 63 characters)."
	}
	if !slug.ValidSubdomain(in.Subdomain) {
		return "Subdomain may only contain lowercase letters, digits and hyphens."
	}
	if !in.SubdomainMode.Valid() {
		return "Subdomain mode must be VIP or BASIC."
	}
	if in.AgreedPrice < 0 || in.AgreedPrice > maxPrice {
		return "Agreed price is out of range."
	}
	return ""
}

// guestInput is one guest in an add or bulk-add request.
type guestInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// validateGuest checks a guest entry and returns the first error found.
func validateGuest(in *guestInput) string {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "Guest name is required."
	}
	if utf8.RuneCountInString(name) > maxGuestNameLen {
		return "Guest name is too long (max 200 characters)."
	}
	if len(strings.TrimSpace(in.Phone)) > maxPhoneLen {
		return "Phone number is too long."
	}
	return ""
}

// rsvpInput is the payload posted by an invitation's RSVP form.
type rsvpInput struct {
	Subdomain string `json:"subdomain"`
	GuestName string `json:"guestName"`
	Email     string `json:"email"`
	Attending bool   `json:"attending"`
	Allergies string `json:"allergies"`
	Comment   string `json:"comment"`
}

func (in *rsvpInput) trim() {
	in.Subdomain = strings.ToLower(strings.TrimSpace(in.Subdomain))
	in.GuestName = strings.TrimSpace(in.GuestName)
	in.Email = strings.TrimSpace(in.Email)
	in.Allergies = strings.TrimSpace(in.Allergies)
	in.Comment = strings.TrimSpace(in.Comment)
}

// validateRSVP checks a submission and returns the first error found.
func validateRSVP(in *rsvpInput) string {
	if in.Subdomain == "" || in.GuestName == "" {
		return "Missing required fields"
	}
	if utf8.RuneCountInString(in.GuestName) > maxGuestNameLen {
		return "Name is too long (max 200 characters)."
	}
	if in.Email != "" {
		if len(in.Email) > maxEmailLen {
			return "Email is too long."
		}
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return "Email address is invalid."
		}
	}
	if utf8.RuneCountInString(in.Allergies) > maxAllergiesLen {
		return "Allergies are too long (max 500 characters)."
	}
	if utf8.RuneCountInString(in.Comment) > maxCommentLen {
		return "Comment is too long (max 1,000 characters)."
	}
	return ""
}

// Accepted upload types, keyed by lower-cased extension.
var allowedUploads = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
	"gif":  "image/gif",
	"mp4":  "video/mp4",
	"webm": "video/webm",
}

// errDoubleExtension is reported for names like "photo.php.jpg".
const errDoubleExtension = "Security Violation: Double extensions are not allowed."

// validateUpload checks an uploaded file's name and declared type. It
// returns the normalized extension, or a message when the file is refused.
func validateUpload(filename, contentType string) (ext string, msg string) {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	if strings.Count(base, ".") > 1 {
		return "", errDoubleExtension
	}
	ext = strings.ToLower(strings.TrimPrefix(filepath.Ext(base), "."))
	want, ok := allowedUploads[ext]
	if ext == "" {
		return "", "File has no extension."
	}
	if !ok {
		return "", fmt.Sprintf("File type .%s is not allowed.", ext)
	}
	if ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])); ct != want {
		return "", "File content type does not match its extension."
	}
	return ext, ""
}
