// Package compat answers the status and capability probes that
// ownCloud/Nextcloud-family clients send before they speak WebDAV.
//
// Probes are matched against an ordered route table by method and exact raw
// path. The first match decides the outcome; requests that match nothing
// continue down the handler chain untouched.
package compat

import "net/http"

// ActionKind selects what the shim does with a matched request.
type ActionKind int

const (
	// Respond writes a static JSON document with status 200.
	Respond ActionKind = iota

	// PassThrough logs the probe and forwards it unchanged.
	PassThrough

	// Empty writes status 200 with an empty body.
	Empty
)

func (k ActionKind) String() string {
	switch k {
	case Respond:
		return "respond"
	case PassThrough:
		return "pass_through"
	case Empty:
		return "empty"
	default:
		return "unknown"
	}
}

// Action is what a Route does. Document is set only for Respond.
type Action struct {
	Kind     ActionKind
	Document *Document
}

// Route is one row of the shim table.
type Route struct {
	Method string
	Path   string
	Action Action

	// Message is logged at INFO when the route matches.
	Message string
}

// Table is an ordered list of routes; the first match wins.
type Table []Route

// Match returns the first route matching method and the raw request path.
// A HEAD request with no HEAD row of its own falls back to the GET rows.
func (t Table) Match(method, rawPath string) (Route, bool) {
	for _, r := range t {
		if r.Method == method && r.Path == rawPath {
			return r, true
		}
	}
	if method == http.MethodHead {
		return t.Match(http.MethodGet, rawPath)
	}
	return Route{}, false
}

// Documents are the JSON bodies served by the default table.
type Documents struct {
	Status       *Document
	Capabilities *Document
	Config       *Document
}

// DefaultTable returns the probe table for clients mounted under root,
// e.g. "/remote.php/webdav". avatarUser is the account whose avatar probe
// is forwarded.
func DefaultTable(root, avatarUser string, docs Documents) Table {
	return Table{
		{Method: http.MethodGet, Path: "/nextcloud/status.php", Action: Action{Kind: Respond, Document: docs.Status}, Message: "Requesting status"},
		{Method: http.MethodGet, Path: "/status.php", Action: Action{Kind: Respond, Document: docs.Status}, Message: "Requesting status"},
		{Method: http.MethodGet, Path: "/ocs/v1.php/cloud/capabilities", Action: Action{Kind: Respond, Document: docs.Capabilities}, Message: "Requesting v1 capabilities"},
		{Method: http.MethodGet, Path: "/ocs/v2.php/cloud/capabilities", Action: Action{Kind: Respond, Document: docs.Capabilities}, Message: "Requesting v2 capabilities"},
		{Method: http.MethodGet, Path: "/ocs/v2.php/core/navigation/apps", Action: Action{Kind: PassThrough}, Message: "Requesting v2 navigation"},
		{Method: http.MethodGet, Path: "/ocs/v1.php/config", Action: Action{Kind: Respond, Document: docs.Config}, Message: "Requesting v1 config"},
		{Method: http.MethodGet, Path: "/ocs/v1.php/cloud/user", Action: Action{Kind: PassThrough}, Message: "Requesting v1 user"},
		{Method: http.MethodGet, Path: "/remote.php/dav/avatars/" + avatarUser + "/128.png", Action: Action{Kind: PassThrough}, Message: "Requesting avatar"},
		{Method: http.MethodHead, Path: root + "//", Action: Action{Kind: Empty}, Message: "Probing root"},
	}
}
