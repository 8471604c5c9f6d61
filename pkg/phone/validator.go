package phone

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "BR"

// PhoneType represents the type of phone number.
type PhoneType string

const (
	TypeFixedLine         PhoneType = "FIXED_LINE"
	TypeMobile            PhoneType = "MOBILE"
	TypeFixedLineOrMobile PhoneType = "FIXED_LINE_OR_MOBILE"
	TypeTollFree          PhoneType = "TOLL_FREE"
	TypeVoip              PhoneType = "VOIP"
	TypeUnknown           PhoneType = "UNKNOWN"
)

// ValidationResult contains the result of phone number validation.
type ValidationResult struct {
	IsValid        bool      `json:"is_valid"`
	E164Format     string    `json:"e164_format"`
	NationalFormat string    `json:"national_format"`
	CountryCode    string    `json:"country_code"`
	PhoneType      PhoneType `json:"phone_type"`
}

// Normalizer turns free-form contact numbers into E.164.
type Normalizer struct {
	region string
}

// NewNormalizer returns a normalizer for numbers written without a country code.
func NewNormalizer(region string) *Normalizer {
	if region == "" {
		region = DefaultRegion
	}
	return &Normalizer{region: strings.ToUpper(region)}
}

// Region reports the default region.
func (n *Normalizer) Region() string {
	return n.region
}

// Validate parses phone and reports its formats.
func (n *Normalizer) Validate(phone string) (*ValidationResult, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, fmt.Errorf("phone number cannot be empty")
	}

	parsed, err := phonenumbers.Parse(phone, n.region)
	if err != nil {
		return nil, fmt.Errorf("failed to parse phone number: %w", err)
	}

	return &ValidationResult{
		IsValid:        phonenumbers.IsValidNumber(parsed),
		E164Format:     phonenumbers.Format(parsed, phonenumbers.E164),
		NationalFormat: phonenumbers.Format(parsed, phonenumbers.NATIONAL),
		CountryCode:    phonenumbers.GetRegionCodeForNumber(parsed),
		PhoneType:      phoneType(phonenumbers.GetNumberType(parsed)),
	}, nil
}

// Normalize returns phone in E.164. An empty phone stays empty; an invalid
// one is an error.
func (n *Normalizer) Normalize(phone string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", nil
	}
	res, err := n.Validate(phone)
	if err != nil {
		return "", err
	}
	if !res.IsValid {
		return "", fmt.Errorf("invalid phone number %q", phone)
	}
	return res.E164Format, nil
}

func phoneType(t phonenumbers.PhoneNumberType) PhoneType {
	switch t {
	case phonenumbers.FIXED_LINE:
		return TypeFixedLine
	case phonenumbers.MOBILE:
		return TypeMobile
	case phonenumbers.FIXED_LINE_OR_MOBILE:
		return TypeFixedLineOrMobile
	case phonenumbers.TOLL_FREE:
		return TypeTollFree
	case phonenumbers.VOIP:
		return TypeVoip
	default:
		return TypeUnknown
	}
}
