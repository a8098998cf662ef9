package services

import (
	"strings"
)

// User-agent classification is an ordered list of substring rules evaluated
// top to bottom; the first hit wins. Ordering is load-bearing: "Chrome" user
// agents also contain "Safari", and Edge/Opera also contain "Chrome".

type uaRule struct {
	token string
	label string
}

var deviceRules = []uaRule{
	{"iPad", "Tablet"},
	{"Tablet", "Tablet"},
	{"Kindle", "Tablet"},
	{"iPhone", "Mobile"},
	{"Mobile", "Mobile"},
	{"Android", "Mobile"},
}

var browserRules = []uaRule{
	{"Edg", "Edge"},
	{"OPR", "Opera"},
	{"Opera", "Opera"},
	{"SamsungBrowser", "Samsung Internet"},
	{"Chrome", "Chrome"},
	{"CriOS", "Chrome"},
	{"FxiOS", "Firefox"},
	{"Firefox", "Firefox"},
	{"Safari", "Safari"},
	{"MSIE", "Internet Explorer"},
	{"Trident", "Internet Explorer"},
}

const (
	DefaultDevice  = "Desktop"
	DefaultBrowser = "Other"
)

func ClassifyDevice(userAgent string) string {
	for _, rule := range deviceRules {
		if strings.Contains(userAgent, rule.token) {
			return rule.label
		}
	}
	return DefaultDevice
}

func ClassifyBrowser(userAgent string) string {
	for _, rule := range browserRules {
		if strings.Contains(userAgent, rule.token) {
			return rule.label
		}
	}
	return DefaultBrowser
}
