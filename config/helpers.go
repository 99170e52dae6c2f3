package config

import "strings"

func trimLower(s string) string  { return strings.TrimPrefix(strings.ToLower(s), "chpd_") }
func replaceAll(s string) string { return strings.ReplaceAll(s, "__", ".") }
