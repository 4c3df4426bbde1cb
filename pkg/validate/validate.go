// Package validate checks request structs against `validate` struct tags.
//
// Rules are comma separated; parameterised rules take "=":
//
//	required      non-zero / non-blank (pointers: non-nil)
//	nullable      skip remaining rules when the field is empty
//	email         address shape
//	phone         Kenyan mobile (07xx, 01xx, 2547xx, +2547xx)
//	url           http(s) URL
//	slug          lowercase letters, digits and dashes
//	date          YYYY-MM-DD or RFC3339
//	numeric       parses as a number
//	min=N max=N   numbers: value bounds; strings: rune length
//	gt=N gte=N lt=N lte=N
//	in=a|b|c      one of the listed values ("|" or "," separated)
//	regex=expr
//
// Struct returns field → message, keyed by the json name, first failing
// rule only.
package validate

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

type ruleFunc func(field string, v reflect.Value, param string) string

var (
	rulesMu sync.RWMutex
	rules   = map[string]ruleFunc{}
)

// Register adds or replaces a rule.
func Register(name string, fn ruleFunc) {
	rulesMu.Lock()
	rules[name] = fn
	rulesMu.Unlock()
}

func lookup(name string) (ruleFunc, bool) {
	rulesMu.RLock()
	defer rulesMu.RUnlock()
	fn, ok := rules[name]
	return fn, ok
}

// Struct validates the exported, tagged fields of v (a struct or pointer to
// one).
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return errs
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" || !field.IsExported() {
			continue
		}

		name := jsonFieldName(field)
		value := rv.Field(i)
		list := splitRules(tag)

		if contains(list, "nullable") && isEmpty(value) {
			continue
		}
		if !contains(list, "required") && value.Kind() == reflect.Ptr && value.IsNil() {
			continue
		}

		for _, rule := range list {
			if rule == "nullable" {
				continue
			}
			key, param, _ := strings.Cut(rule, "=")
			fn, ok := lookup(key)
			if !ok {
				continue
			}
			if msg := fn(name, value, param); msg != "" {
				errs[name] = msg
				break
			}
		}
	}
	return errs
}

// HasErrors reports whether errs holds any failure.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

var (
	emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRE = regexp.MustCompile(`^(\+?254|0)(7|1)\d{8}$`)
	slugRE  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

func init() {
	Register("required", func(f string, v reflect.Value, _ string) string {
		if isEmpty(v) {
			return fmt.Sprintf("The %s field is required.", f)
		}
		return ""
	})
	Register("email", func(f string, v reflect.Value, _ string) string {
		if !emailRE.MatchString(str(v)) {
			return fmt.Sprintf("The %s must be a valid email address.", f)
		}
		return ""
	})
	Register("phone", func(f string, v reflect.Value, _ string) string {
		if !phoneRE.MatchString(strings.ReplaceAll(str(v), " ", "")) {
			return fmt.Sprintf("The %s must be a valid phone number.", f)
		}
		return ""
	})
	Register("url", func(f string, v reflect.Value, _ string) string {
		u, err := url.ParseRequestURI(str(v))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Sprintf("The %s must be a valid URL.", f)
		}
		return ""
	})
	Register("slug", func(f string, v reflect.Value, _ string) string {
		if !slugRE.MatchString(str(v)) {
			return fmt.Sprintf("The %s may only contain lowercase letters, numbers and dashes.", f)
		}
		return ""
	})
	Register("date", func(f string, v reflect.Value, _ string) string {
		if _, err := ParseDate(str(v)); err != nil {
			return fmt.Sprintf("The %s is not a valid date.", f)
		}
		return ""
	})
	Register("numeric", func(f string, v reflect.Value, _ string) string {
		if isNumber(v) {
			return ""
		}
		if _, err := strconv.ParseFloat(str(v), 64); err != nil {
			return fmt.Sprintf("The %s field must be a number.", f)
		}
		return ""
	})
	Register("min", func(f string, v reflect.Value, p string) string {
		n := num(p)
		if isNumber(v) {
			if toFloat(v) < n {
				return fmt.Sprintf("The %s must be at least %s.", f, p)
			}
		} else if v.Kind() == reflect.Slice {
			if float64(v.Len()) < n {
				return fmt.Sprintf("The %s must have at least %s items.", f, p)
			}
		} else if float64(len([]rune(str(v)))) < n {
			return fmt.Sprintf("The %s must be at least %s characters.", f, p)
		}
		return ""
	})
	Register("max", func(f string, v reflect.Value, p string) string {
		n := num(p)
		if isNumber(v) {
			if toFloat(v) > n {
				return fmt.Sprintf("The %s must not be greater than %s.", f, p)
			}
		} else if v.Kind() == reflect.Slice {
			if float64(v.Len()) > n {
				return fmt.Sprintf("The %s must not have more than %s items.", f, p)
			}
		} else if float64(len([]rune(str(v)))) > n {
			return fmt.Sprintf("The %s must not exceed %s characters.", f, p)
		}
		return ""
	})
	Register("gt", compare(func(a, b float64) bool { return a > b }, "greater than"))
	Register("gte", compare(func(a, b float64) bool { return a >= b }, "greater than or equal to"))
	Register("lt", compare(func(a, b float64) bool { return a < b }, "less than"))
	Register("lte", compare(func(a, b float64) bool { return a <= b }, "less than or equal to"))
	Register("in", func(f string, v reflect.Value, p string) string {
		raw := str(v)
		for _, a := range strings.FieldsFunc(p, func(r rune) bool { return r == '|' || r == ',' }) {
			if raw == strings.TrimSpace(a) {
				return ""
			}
		}
		return fmt.Sprintf("The selected %s is invalid.", f)
	})
	Register("regex", func(f string, v reflect.Value, p string) string {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Sprintf("The %s has an invalid validation pattern.", f)
		}
		if !re.MatchString(str(v)) {
			return fmt.Sprintf("The %s format is invalid.", f)
		}
		return ""
	})
}

func compare(ok func(a, b float64) bool, words string) ruleFunc {
	return func(f string, v reflect.Value, p string) string {
		if !ok(toFloat(v), num(p)) {
			return fmt.Sprintf("The %s must be %s %s.", f, words, p)
		}
		return ""
	}
}

var dateLayouts = []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05"}

// ParseDate accepts the layouts the "date" rule accepts.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as date", s)
}

func deref(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return v
		}
		v = v.Elem()
	}
	return v
}

func str(v reflect.Value) string {
	v = deref(v)
	if !v.IsValid() || ((v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) && v.IsNil()) {
		return ""
	}
	return fmt.Sprintf("%v", v.Interface())
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Bool:
		return false
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	}
	return false
}

func isNumber(v reflect.Value) bool {
	switch deref(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func toFloat(v reflect.Value) float64 {
	v = deref(v)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	f, _ := strconv.ParseFloat(str(v), 64)
	return f
}

func num(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func jsonFieldName(f reflect.StructField) string {
	name := f.Tag.Get("json")
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}
	if idx := strings.Index(name, ","); idx != -1 {
		name = name[:idx]
	}
	return name
}

// splitRules splits on commas, except that once an "in=" list starts,
// commas continue the list until a token that names a known rule.
func splitRules(tag string) []string {
	var out []string
	parts := strings.Split(tag, ",")
	for i := 0; i < len(parts); i++ {
		p := strings.TrimSpace(parts[i])
		if strings.HasPrefix(p, "in=") {
			for i+1 < len(parts) && !isRuleToken(parts[i+1]) {
				i++
				p += "," + strings.TrimSpace(parts[i])
			}
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isRuleToken(s string) bool {
	key, _, _ := strings.Cut(strings.TrimSpace(s), "=")
	if key == "nullable" {
		return true
	}
	_, ok := lookup(key)
	return ok
}

func contains(list []string, target string) bool {
	for _, r := range list {
		if r == target {
			return true
		}
	}
	return false
}
