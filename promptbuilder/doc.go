// Package promptbuilder turns a short structured request into a ready-to-paste
// prompt for one of six categories. It is the quota-limited action of the
// studio: callers check and count usage through the gate engine around Build.
package promptbuilder
