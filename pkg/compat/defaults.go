package compat

func ocsMeta() map[string]any {
	return map[string]any{
		"status":       "ok",
		"statuscode":   100,
		"message":      "OK",
		"totalitems":   "",
		"itemsperpage": "",
	}
}

// DefaultCapabilities is the OCS capabilities document served when none is
// configured. It advertises a plain WebDAV server with chunking and no
// sharing, versioning or trash.
func DefaultCapabilities(root string) map[string]any {
	status := DefaultStatus()
	davRoot := root
	if len(davRoot) > 0 && davRoot[0] == '/' {
		davRoot = davRoot[1:]
	}

	return map[string]any{
		"ocs": map[string]any{
			"meta": ocsMeta(),
			"data": map[string]any{
				"version": map[string]any{
					"major":   10,
					"minor":   0,
					"micro":   3,
					"string":  status.VersionString,
					"edition": status.Edition,
				},
				"capabilities": map[string]any{
					"core": map[string]any{
						"pollinterval": 60,
						"webdav-root":  davRoot,
						"status":       status,
					},
					"dav": map[string]any{
						"chunking": "1.0",
					},
					"files": map[string]any{
						"bigfilechunking": true,
						"undelete":        false,
						"versioning":      false,
					},
				},
			},
		},
	}
}

// DefaultConfig is the OCS config document served when none is configured.
func DefaultConfig() map[string]any {
	return map[string]any{
		"ocs": map[string]any{
			"meta": ocsMeta(),
			"data": map[string]any{
				"version": "1.7",
				"website": "ownCloud",
				"host":    "",
				"contact": "",
				"ssl":     "false",
			},
		},
	}
}
