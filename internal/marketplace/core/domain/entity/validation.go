package entity

import (
	"regexp"
	"strings"
	"unicode"
)

const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// NormalizeCNPJ drops formatting characters, "12.345.678/0001-90" -> "12345678000190".
func NormalizeCNPJ(cnpj string) string {
	var b strings.Builder
	for _, r := range cnpj {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func ValidCNPJ(cnpj string) bool {
	return len(NormalizeCNPJ(cnpj)) == 14
}

// Normalize trims the form and reduces the CNPJ to digits.
func (r Registration) Normalize() Registration {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.CNPJ = NormalizeCNPJ(r.CNPJ)
	r.Phone = strings.TrimSpace(r.Phone)
	r.EmployeeCount = strings.TrimSpace(r.EmployeeCount)
	r.MonthlyRevenue = strings.TrimSpace(r.MonthlyRevenue)
	return r
}

// Validate checks a normalized registration.
func (r Registration) Validate() error {
	v := NewValidationError()
	if r.Name == "" {
		v.Add("name", "required")
	}
	if r.Email == "" {
		v.Add("email", "required")
	} else if !ValidEmail(r.Email) {
		v.Add("email", "invalid format")
	}
	if len(r.Password) < MinPasswordLength {
		v.Add("password", "must be at least 6 characters")
	}
	if r.CNPJ == "" {
		v.Add("cnpj", "required")
	} else if len(r.CNPJ) != 14 {
		v.Add("cnpj", "must have 14 digits")
	}
	if r.Phone == "" {
		v.Add("phone", "required")
	}
	if r.EmployeeCount == "" {
		v.Add("employeeCount", "required")
	}
	if r.MonthlyRevenue == "" {
		v.Add("monthlyRevenue", "required")
	}
	return v.OrNil()
}
