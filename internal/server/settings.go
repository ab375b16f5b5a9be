package server

import (
	"context"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.lsp.dev/protocol"

	"github.com/juev/textsync/internal/workspace"
	"github.com/juev/textsync/textbuf"
)

const settingsSection = "textsync"

type serverSettings struct {
	Limits workspace.Limits
	// LogEdits logs every applied edit at debug level.
	LogEdits bool
	// PositionEncoding overrides the negotiated encoding when the client
	// offers it. Only read during initialize.
	PositionEncoding *textbuf.Encoding
	// VerifyOnSave asks the client for the saved text and resynchronizes
	// the document when it has drifted.
	VerifyOnSave bool
	// Exclude holds doublestar patterns matched against document paths.
	// Matching documents are not tracked.
	Exclude []string
}

func defaultServerSettings() serverSettings {
	return serverSettings{
		Limits: workspace.DefaultLimits(),
	}
}

func normalizeServerSettings(settings serverSettings) serverSettings {
	defaults := defaultServerSettings()
	if settings.Limits.MaxDocumentBytes <= 0 {
		settings.Limits.MaxDocumentBytes = defaults.Limits.MaxDocumentBytes
	}
	valid := settings.Exclude[:0:0]
	for _, pattern := range settings.Exclude {
		if doublestar.ValidatePathPattern(pattern) {
			valid = append(valid, pattern)
		}
	}
	settings.Exclude = valid
	return settings
}

func (s *Server) setSettings(settings serverSettings) {
	settings = normalizeServerSettings(settings)
	s.settingsMu.Lock()
	s.settings = settings
	s.settingsMu.Unlock()
	s.workspace.SetLimits(settings.Limits)
}

func (s *Server) getSettings() serverSettings {
	s.settingsMu.RLock()
	defer s.settingsMu.RUnlock()
	return s.settings
}

func (s *Server) refreshConfiguration(ctx context.Context) {
	if s.client == nil || !s.supportsConfiguration {
		return
	}
	result, err := s.client.Configuration(ctx, &protocol.ConfigurationParams{
		Items: []protocol.ConfigurationItem{
			{Section: settingsSection},
		},
	})
	if err != nil || len(result) == 0 {
		return
	}
	s.setSettings(parseSettingsFromRaw(s.getSettings(), result[0]))
}

func (s *Server) excluded(path string) bool {
	if path == "" {
		return false
	}
	for _, pattern := range s.getSettings().Exclude {
		if ok, _ := doublestar.PathMatch(pattern, path); ok {
			return true
		}
	}
	return false
}

func parseSettingsFromRaw(base serverSettings, raw interface{}) serverSettings {
	settings := base
	rawMap, ok := raw.(map[string]interface{})
	if !ok {
		return normalizeServerSettings(settings)
	}
	if nested, ok := rawMap[settingsSection]; ok {
		return parseSettingsFromRaw(settings, nested)
	}
	settings = applySettingsMap(settings, rawMap)
	return normalizeServerSettings(settings)
}

func applySettingsMap(settings serverSettings, raw map[string]interface{}) serverSettings {
	if value, ok := toInt(raw["maxDocumentBytes"]); ok {
		settings.Limits.MaxDocumentBytes = value
	}
	if limitsRaw, ok := raw["limits"].(map[string]interface{}); ok {
		if value, ok := toInt(limitsRaw["maxDocumentBytes"]); ok {
			settings.Limits.MaxDocumentBytes = value
		}
	}
	if value, ok := toInt(raw["limits.maxDocumentBytes"]); ok {
		settings.Limits.MaxDocumentBytes = value
	}

	if value, ok := toBool(raw["logEdits"]); ok {
		settings.LogEdits = value
	}
	if value, ok := toBool(raw["verifyOnSave"]); ok {
		settings.VerifyOnSave = value
	}

	if name, ok := raw["positionEncoding"].(string); ok {
		if enc, err := textbuf.ParseEncoding(strings.ToLower(strings.TrimSpace(name))); err == nil {
			settings.PositionEncoding = &enc
		}
	}

	if patterns, ok := raw["exclude"].([]interface{}); ok {
		settings.Exclude = settings.Exclude[:0:0]
		for _, p := range patterns {
			if pattern, ok := p.(string); ok && pattern != "" {
				settings.Exclude = append(settings.Exclude, pattern)
			}
		}
	}

	return settings
}

func toInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case float32:
		return int(v), true
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return 0, false
		}
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

func toBool(value interface{}) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, false
		}
		return parsed, true
	}
	return false, false
}
