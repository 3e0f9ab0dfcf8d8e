package user

import (
	"bufio"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/fs"
)

var (
	studentFieldTag  = "studentreq"
	studentFieldText = "this field is required for students"

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdComplexityTag  = "pwdcplx"
	pwdComplexityText = "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"
	specialRegex      = regexp.MustCompile("[^A-Za-z0-9]")

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"

	pwdNoCommonTag  = "pwdnocommon"
	pwdNoCommonText = "password is too common"
	commonPasswords []string

	pwdTexts = map[string]string{
		pwdMinLenTag:     pwdMinLenText,
		pwdNoSpaceTag:    pwdNoSpaceText,
		pwdNotAllNumTag:  pwdNotAllNumText,
		pwdComplexityTag: pwdComplexityText,
		pwdAttrSimTag:    pwdAttrSimText,
		pwdNoCommonTag:   pwdNoCommonText,
		studentFieldTag:  studentFieldText,
	}
)

// InitValidators registers the User validators. core.InitValidators must be called first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(userStructValidation, NewUser{})
	for tag, text := range pwdTexts {
		core.RegisterCustomTranslation(validate, translator, tag, text)
	}
}

// LoadCommonPasswords loads the list of passwords rejected by the password policy.
func LoadCommonPasswords(logger core.Logger) {
	file, err := appfs.FS.Open("common-passwords.txt")
	if err != nil {
		logger.Error(fmt.Sprintf("opening common passwords: %v", err), err)
		return
	}
	defer func() { _ = file.Close() }()

	pwds := make([]string, 0, 128)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if pwd := strings.TrimSpace(scanner.Text()); pwd != "" {
			pwds = append(pwds, strings.ToLower(pwd))
		}
	}
	if err = scanner.Err(); err != nil {
		logger.Error(fmt.Sprintf("reading common passwords: %v", err), err)
	}
	sort.Strings(pwds)
	commonPasswords = pwds
}

// userStructValidation does struct level validation on NewUser.
func userStructValidation(sl validator.StructLevel) {
	nu, ok := sl.Current().Interface().(NewUser)
	if !ok {
		return
	}
	if nu.Role == RoleStudent {
		if nu.Branch == "" {
			sl.ReportError(nu.Branch, "branch", "Branch", studentFieldTag, "")
		}
		if nu.Year == 0 {
			sl.ReportError(nu.Year, "year", "Year", studentFieldTag, "")
		}
	}
	if tag := checkPassword(nu.Password, nu.Name, nu.Email); tag != "" {
		sl.ReportError(nu.Password, "password", "Password", tag, "")
	}
}

// ValidatePassword applies the password policy outside of struct validation.
func ValidatePassword(pwd string, usrAttrs ...string) error {
	if tag := checkPassword(pwd, usrAttrs...); tag != "" {
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: pwdTexts[tag]})
	}
	return nil
}

// checkPassword applies the password policy and returns the tag of the first failed rule:
// - minLen: 8
// - no whitespace
// - no all numeric
// - complexity: 1 upper, 1 lower, 1 digit, 1 special
// - no user attrs similarity
// - no common password
func checkPassword(pwd string, usrAttrs ...string) string {
	var (
		digitCount                             int
		hasUpper, hasLower, hasDig, hasSpecial bool
	)

	runes := []rune(pwd)
	if len(runes) < pwdMinLen {
		return pwdMinLenTag
	}
	for _, char := range runes {
		if unicode.IsSpace(char) {
			return pwdNoSpaceTag
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
		if !hasUpper && unicode.IsUpper(char) {
			hasUpper = true
		}
		if !hasLower && unicode.IsLower(char) {
			hasLower = true
		}
	}

	if digitCount == len(runes) {
		return pwdNotAllNumTag
	}

	hasDig = digitCount > 0
	hasSpecial = specialRegex.MatchString(pwd)
	if !(hasUpper && hasLower && hasDig && hasSpecial) {
		return pwdComplexityTag
	}

	lpwd := strings.ToLower(pwd)
	for _, attr := range usrAttrs {
		if attr == "" {
			continue
		}
		attr = strings.ToLower(attr)
		ratio := difflib.NewMatcher(strings.Split(lpwd, ""), strings.Split(attr, "")).QuickRatio()
		if ratio >= pwdMaxSim {
			return pwdAttrSimTag
		}
	}

	if idx := sort.SearchStrings(commonPasswords, lpwd); idx < len(commonPasswords) && commonPasswords[idx] == lpwd {
		return pwdNoCommonTag
	}
	return ""
}
