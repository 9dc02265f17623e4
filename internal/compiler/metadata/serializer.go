package metadata

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the manifest encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the manifest format from a file name.
// A trailing ".gz" is ignored.
func FormatForPath(path string) Format {
	ext := strings.ToLower(filepath.Ext(strings.TrimSuffix(path, ".gz")))
	if ext == ".yaml" || ext == ".yml" {
		return FormatYAML
	}
	return FormatJSON
}

// MarshalJSON encodes each annotation as an object tagged by "kind".
func (as Annotations) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(as))
	for _, a := range as {
		raw, err := encodeAnnotation(a)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return json.Marshal(out)
}

func encodeAnnotation(a Annotation) (json.RawMessage, error) {
	if m, ok := a.(Malformed); ok {
		if len(m.Raw) > 0 {
			return m.Raw, nil
		}
		return json.Marshal(map[string]string{"kind": m.Name})
	}

	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", a.Kind(), err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", a.Kind(), err)
	}
	kind, _ := json.Marshal(a.Kind().String())
	fields["kind"] = kind
	return json.Marshal(fields)
}

// UnmarshalJSON decodes a list of tagged annotation objects. An entry with an
// unknown kind or an ill-typed payload becomes a Malformed annotation so that
// discovery can report it against its declaration.
func (as *Annotations) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(Annotations, 0, len(raws))
	for _, raw := range raws {
		out = append(out, decodeAnnotation(raw))
	}
	*as = out
	return nil
}

func decodeAnnotation(raw json.RawMessage) Annotation {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Malformed{Reason: "annotation must be an object", Raw: raw}
	}

	var name string
	if err := json.Unmarshal(fields["kind"], &name); err != nil || name == "" {
		return Malformed{Reason: "missing annotation kind", Raw: raw}
	}

	kind, ok := KindOf(name)
	if !ok {
		return Malformed{Name: name, Reason: "unknown annotation kind", Raw: raw}
	}

	delete(fields, "kind")
	payload, err := json.Marshal(fields)
	if err != nil {
		return Malformed{Name: name, Reason: err.Error(), Raw: raw}
	}

	a, err := decoders[kind](payload)
	if err != nil {
		return Malformed{Name: name, Reason: err.Error(), Raw: raw}
	}
	return a
}

var decoders = map[Kind]func([]byte) (Annotation, error){
	KindScriptUnit:              decodeAs[ScriptUnit],
	KindExtensionModule:         decodeAs[ExtensionModule],
	KindLanguageTarget:          decodeAs[LanguageTarget],
	KindHidden:                  decodeAs[Hidden],
	KindConditional:             decodeAs[Conditional],
	KindSourceType:              decodeAs[SourceType],
	KindMemberVisibility:        decodeAs[MemberVisibility],
	KindImportLocals:            decodeAs[ImportLocals],
	KindImportCallerArgs:        decodeAs[ImportCallerArgs],
	KindImportCallerClass:       decodeAs[ImportCallerClass],
	KindImportCallerStaticClass: decodeAs[ImportCallerStaticClass],
	KindCastToFalse:             decodeAs[CastToFalse],
	KindTrait:                   decodeAs[Trait],
	KindFieldsOnlyConstructor:   decodeAs[FieldsOnlyConstructor],
	KindNotNull:                 decodeAs[NotNull],
}

func decodeAs[T Annotation](payload []byte) (Annotation, error) {
	var v T
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeManifest parses a manifest in the given format.
func DecodeManifest(data []byte, format Format) (*Manifest, error) {
	if format == FormatYAML {
		var doc interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML manifest: %w", err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to convert YAML manifest: %w", err)
		}
		data = converted
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.checkEntries(); err != nil {
		return nil, err
	}
	return &m, nil
}

// checkEntries rejects null entries in any list of the manifest, naming the
// parent declaration path.
func (m *Manifest) checkEntries() error {
	null := func(parent, list string, i int) error {
		return fmt.Errorf("%s: %s entry %d is null", parent, list, i)
	}
	params := func(parent string, ps []*Parameter) error {
		for i, p := range ps {
			if p == nil {
				return null(parent, "params", i)
			}
		}
		return nil
	}

	for i, mod := range m.Modules {
		if mod == nil {
			return fmt.Errorf("manifest module %d is empty", i)
		}
		for i, t := range mod.Types {
			if t == nil {
				return null(mod.Path(), "types", i)
			}
			for i, c := range t.Constructors {
				if c == nil {
					return null(mod.TypePath(t), "constructors", i)
				}
				if err := params(mod.MemberPath(t, CtorName(i)), c.Params); err != nil {
					return err
				}
			}
			for i, meth := range t.Methods {
				if meth == nil {
					return null(mod.TypePath(t), "methods", i)
				}
				if err := params(mod.MemberPath(t, meth.Name), meth.Params); err != nil {
					return err
				}
			}
			for i, f := range t.Fields {
				if f == nil {
					return null(mod.TypePath(t), "fields", i)
				}
			}
			for i, p := range t.Properties {
				if p == nil {
					return null(mod.TypePath(t), "properties", i)
				}
			}
		}
	}
	return nil
}

// LoadManifest reads a manifest file. Files ending in ".gz" are decompressed.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	if strings.HasSuffix(path, ".gz") {
		if data, err = Decompress(data); err != nil {
			return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
		}
	}
	m, err := DecodeManifest(data, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// EncodeManifest converts a manifest to JSON.
// The output is deterministic - same input will always produce the same output.
func EncodeManifest(m *Manifest) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("manifest cannot be nil")
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize manifest: %w", err)
	}
	return data, nil
}

// Compress compresses data using gzip compression.
func Compress(data []byte) ([]byte, error) {
	if data == nil {
		return nil, fmt.Errorf("data cannot be nil")
	}

	if len(data) == 0 {
		return []byte{}, nil
	}

	var buf bytes.Buffer

	writer, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close() // Ignore close error when write failed
		return nil, fmt.Errorf("failed to compress data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress decompresses gzip-compressed data.
func Decompress(data []byte) ([]byte, error) {
	if data == nil {
		return nil, fmt.Errorf("data cannot be nil")
	}

	if len(data) == 0 {
		return []byte{}, nil
	}

	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer func() {
		_ = reader.Close() // Ignore close error - we already have the data
	}()

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress data: %w", err)
	}

	return decompressed, nil
}

// WriteManifest writes a manifest as JSON, gzip-compressed when path ends in ".gz".
func WriteManifest(m *Manifest, outputPath string) error {
	if outputPath == "" {
		return fmt.Errorf("output path cannot be empty")
	}

	data, err := EncodeManifest(m)
	if err != nil {
		return err
	}
	if strings.HasSuffix(outputPath, ".gz") {
		if data, err = Compress(data); err != nil {
			return err
		}
	}

	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest to %s: %w", outputPath, err)
	}

	return nil
}
