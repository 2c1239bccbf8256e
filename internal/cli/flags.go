package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type toolCallArgs struct {
	toolArgs map[string]any
	jsonOut  bool
	help     bool
}

// parseToolCallArgs reads the arguments after "call <tool>": one positional
// JSON object, GNU-style --key=value flags, or a JSON object on stdin.
// --json and --help belong to the CLI unless they come after "--".
func parseToolCallArgs(args []string, stdin io.Reader, stdinIsTTY bool) (*toolCallArgs, error) {
	parsed := &toolCallArgs{
		toolArgs: make(map[string]any),
	}

	var positionalJSON string
	hasToolFlags := false
	hasAnyFlags := false
	afterSeparator := false

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			afterSeparator = true
			continue
		}

		if !afterSeparator {
			switch arg {
			case "--json":
				parsed.jsonOut = true
				hasAnyFlags = true
				continue
			case "-h", "--help":
				parsed.help = true
				hasAnyFlags = true
				continue
			}
		}

		if strings.HasPrefix(arg, "--") {
			if positionalJSON != "" {
				return nil, fmt.Errorf("cannot mix positional JSON arguments with --flags")
			}

			key, value, err := parseLongFlagValue(args, &i, arg)
			if err != nil {
				return nil, err
			}
			putArgValue(parsed.toolArgs, key, value)
			hasToolFlags = true
			hasAnyFlags = true
			continue
		}

		if strings.HasPrefix(arg, "-") && !looksNumeric(arg) {
			return nil, fmt.Errorf("unsupported short flag: %s", arg)
		}

		if hasToolFlags {
			return nil, fmt.Errorf("unexpected positional argument: %s", arg)
		}
		if positionalJSON != "" {
			return nil, fmt.Errorf("multiple positional arguments are not supported")
		}
		positionalJSON = arg
	}

	if positionalJSON != "" {
		obj, err := parseJSONObject(positionalJSON)
		if err != nil {
			return nil, err
		}
		parsed.toolArgs = obj
		return parsed, nil
	}

	if !hasAnyFlags && !stdinIsTTY && stdin != nil {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		trimmed := strings.TrimSpace(string(data))
		if trimmed != "" {
			obj, err := parseJSONObject(trimmed)
			if err != nil {
				return nil, err
			}
			parsed.toolArgs = obj
		}
	}

	return parsed, nil
}

func parseJSONObject(raw string) (map[string]any, error) {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("invalid JSON arguments: %w", err)
	}

	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("JSON arguments must be an object")
	}
	return obj, nil
}

// parseLongFlagValue accepts --key=value, --key value and bare --key (true).
// --no-key is false. Values that parse as JSON numbers or booleans are
// converted so the host sees the types a JSON client would send.
func parseLongFlagValue(args []string, idx *int, token string) (string, any, error) {
	body := strings.TrimPrefix(token, "--")
	if body == "" {
		return "", nil, fmt.Errorf("invalid flag: %s", token)
	}

	if eq := strings.Index(body, "="); eq >= 0 {
		key := body[:eq]
		if key == "" {
			return "", nil, fmt.Errorf("invalid flag: %s", token)
		}
		return key, coerceValue(body[eq+1:]), nil
	}

	key := body
	if *idx+1 < len(args) && (!strings.HasPrefix(args[*idx+1], "-") || looksNumeric(args[*idx+1])) {
		*idx = *idx + 1
		return key, coerceValue(args[*idx]), nil
	}

	if negated, ok := strings.CutPrefix(key, "no-"); ok && negated != "" {
		return negated, false, nil
	}
	return key, true, nil
}

func coerceValue(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func looksNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// putArgValue collects repeated flags into a list.
func putArgValue(dst map[string]any, key string, value any) {
	if existing, ok := dst[key]; ok {
		switch v := existing.(type) {
		case []any:
			dst[key] = append(v, value)
		default:
			dst[key] = []any{v, value}
		}
		return
	}
	dst[key] = value
}
