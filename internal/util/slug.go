package util

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

const SlugMaxLen = 160

// GenerateSlug 小写，非字母数字折叠为单个 "-"
func GenerateSlug(s string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteRune('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

func cutSlug(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return strings.Trim(string(r), "-")
}

// UniqueSlug 冲突时依次尝试 base-2, base-3 ...
func UniqueSlug(base, fallback string, taken func(candidate string) (bool, error)) (string, error) {
	slug := cutSlug(GenerateSlug(base), SlugMaxLen)
	if slug == "" {
		slug = GenerateSlug(fallback)
	}
	if slug == "" {
		slug = "post"
	}

	ok, err := taken(slug)
	if err != nil {
		return "", err
	}
	if !ok {
		return slug, nil
	}

	for i := 2; i < 1000; i++ {
		suffix := fmt.Sprintf("-%d", i)
		candidate := cutSlug(slug, SlugMaxLen-len(suffix)) + suffix
		ok, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !ok {
			return candidate, nil
		}
	}
	return "", errors.Errorf("no free slug for %q", base)
}
