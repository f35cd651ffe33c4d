package config

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"

	"github.com/thepixelmancer/image-mixer/internal/model"
)

// DefaultBlendMode is carried on layers that do not set blend_mode.
const DefaultBlendMode = "normal"

// outputExts are the template extensions whose encoders keep the alpha channel.
var outputExts = map[string]bool{".png": true, ".tif": true, ".tiff": true}

// Jobs validates every configured mixer and converts it into a model.Job.
// Unknown anchors and resample kernels are reported on log and replaced by
// their defaults; every other problem is an ErrConfiguration.
func (c *Config) Jobs(log zerolog.Logger) ([]model.Job, error) {
	jobs := make([]model.Job, 0, len(c.Mixers))
	seen := make(map[string]bool, len(c.Mixers))

	for i, m := range c.Mixers {
		job, err := m.job(i, log)
		if err != nil {
			return nil, fmt.Errorf("image_mixers[%d]: %w", i, err)
		}
		if seen[job.Name] {
			return nil, fmt.Errorf("image_mixers[%d]: %w: duplicate name %q", i, model.ErrConfiguration, job.Name)
		}
		seen[job.Name] = true

		jobs = append(jobs, job)
	}

	return jobs, nil
}

// Select keeps the jobs named in names, in configuration order.
// An empty names selects every job.
func Select(jobs []model.Job, names []string) ([]model.Job, error) {
	if len(names) == 0 {
		return jobs, nil
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	selected := make([]model.Job, 0, len(names))
	for _, j := range jobs {
		if want[j.Name] {
			selected = append(selected, j)
			delete(want, j.Name)
		}
	}

	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for _, n := range names {
			if want[n] {
				missing = append(missing, n)
			}
		}
		return nil, fmt.Errorf("%w: unknown job %s", model.ErrConfiguration, strings.Join(missing, ", "))
	}

	return selected, nil
}

func (m Mixer) job(i int, log zerolog.Logger) (model.Job, error) {
	name := strings.TrimSpace(m.Name)
	if name == "" {
		name = fmt.Sprintf("mixer-%d", i+1)
	}

	if strings.TrimSpace(m.OutputFolder) == "" {
		return model.Job{}, fmt.Errorf("%w: output_folder is required", model.ErrConfiguration)
	}
	if len(m.Layers) == 0 {
		return model.Job{}, fmt.Errorf("%w: at least one layer is required", model.ErrConfiguration)
	}

	mode, err := model.ParseMode(m.CombinationMode)
	if err != nil {
		return model.Job{}, err
	}

	template := m.OutputTemplate
	if template == "" {
		template = model.DefaultTemplate
	}
	if ext := strings.ToLower(filepath.Ext(template)); !outputExts[ext] {
		return model.Job{}, fmt.Errorf("%w: output_template %q must end in .png, .tif or .tiff", model.ErrConfiguration, template)
	}

	layers := make([]model.LayerSpec, len(m.Layers))
	for li, l := range m.Layers {
		spec, err := l.spec(log.With().Str("job", name).Int("layer", li).Logger())
		if err != nil {
			return model.Job{}, fmt.Errorf("layers[%d]: %w", li, err)
		}
		layers[li] = spec
	}

	return model.Job{
		Name:           name,
		OutputFolder:   m.OutputFolder,
		OutputTemplate: template,
		Mode:           mode,
		Layers:         layers,
	}, nil
}

func (l Layer) spec(log zerolog.Logger) (model.LayerSpec, error) {
	src, err := model.ParseSource(l.Path)
	if err != nil {
		return model.LayerSpec{}, fmt.Errorf("path: %w", err)
	}

	offset, err := decodeOffset(l.Offset)
	if err != nil {
		return model.LayerSpec{}, fmt.Errorf("offset: %w", err)
	}

	scale, err := decodeScale(l.Scale)
	if err != nil {
		return model.LayerSpec{}, fmt.Errorf("scale: %w", err)
	}

	anchor, ok := model.ParseAnchor(l.Anchor)
	if !ok {
		log.Warn().Str("anchor", l.Anchor).Msg("unknown anchor, using center")
	}

	resample, ok := model.ParseResample(l.Resample)
	if !ok {
		log.Warn().Str("resample", l.Resample).Msg("unknown resample filter, using nearest")
	}

	blend := strings.TrimSpace(l.BlendMode)
	if blend == "" {
		blend = DefaultBlendMode
	}

	return model.LayerSpec{
		Source:    src,
		Offset:    offset,
		BlendMode: blend,
		Anchor:    anchor,
		Scale:     scale,
		Resample:  resample,
	}, nil
}

// decodeOffset accepts nil, an [x, y] pair or an {x, y} object.
func decodeOffset(raw any) (image.Point, error) {
	switch v := normalize(raw).(type) {
	case nil:
		return image.Point{}, nil
	case []any:
		if len(v) != 2 {
			return image.Point{}, fmt.Errorf("%w: want [x, y], got %d values", model.ErrConfiguration, len(v))
		}
		x, err := toInt(v[0])
		if err != nil {
			return image.Point{}, err
		}
		y, err := toInt(v[1])
		if err != nil {
			return image.Point{}, err
		}
		return image.Pt(x, y), nil
	case map[string]any:
		var p struct {
			X int `mapstructure:"x"`
			Y int `mapstructure:"y"`
		}
		if err := strictDecode(v, &p); err != nil {
			return image.Point{}, err
		}
		return image.Pt(p.X, p.Y), nil
	default:
		return image.Point{}, fmt.Errorf("%w: unsupported offset %v", model.ErrConfiguration, raw)
	}
}

// decodeScale accepts nil, a number (uniform ratio), a [w, h] ratio pair or
// a {width, height} pixel size.
func decodeScale(raw any) (model.Scale, error) {
	switch v := normalize(raw).(type) {
	case nil:
		return model.Scale{}, nil
	case []any:
		if len(v) != 2 {
			return model.Scale{}, fmt.Errorf("%w: want [w, h], got %d values", model.ErrConfiguration, len(v))
		}
		w, err := toRatio(v[0])
		if err != nil {
			return model.Scale{}, err
		}
		h, err := toRatio(v[1])
		if err != nil {
			return model.Scale{}, err
		}
		return model.Ratio(w, h), nil
	case map[string]any:
		var size struct {
			Width  int `mapstructure:"width"`
			Height int `mapstructure:"height"`
		}
		if err := strictDecode(v, &size); err != nil {
			return model.Scale{}, err
		}
		if size.Width <= 0 || size.Height <= 0 {
			return model.Scale{}, fmt.Errorf("%w: width and height must be positive", model.ErrConfiguration)
		}
		return model.Absolute(size.Width, size.Height), nil
	default:
		ratio, err := toRatio(v)
		if err != nil {
			return model.Scale{}, err
		}
		return model.Uniform(ratio), nil
	}
}

// normalize turns map[any]any objects produced by some decoders into
// map[string]any.
func normalize(raw any) any {
	if m, ok := raw.(map[any]any); ok {
		return cast.ToStringMap(m)
	}
	return raw
}

func toInt(v any) (int, error) {
	if _, ok := v.(bool); ok {
		return 0, fmt.Errorf("%w: %v is not a number", model.ErrConfiguration, v)
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", model.ErrConfiguration, err)
	}
	return n, nil
}

func toRatio(v any) (float64, error) {
	if _, ok := v.(bool); ok {
		return 0, fmt.Errorf("%w: %v is not a number", model.ErrConfiguration, v)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", model.ErrConfiguration, err)
	}
	if f <= 0 {
		return 0, fmt.Errorf("%w: scale %g must be positive", model.ErrConfiguration, f)
	}
	return f, nil
}

// strictDecode decodes a config object, rejecting unknown keys.
func strictDecode(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}

	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("%w: %v", model.ErrConfiguration, err)
	}

	return nil
}
