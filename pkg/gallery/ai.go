package gallery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/genai"
	"k8s.io/klog/v2"

	"github.com/zenryukyo/gallery/pkg/imgsize"
)

// CaptionPrompt asks for a short caption in the same language as the site.
var CaptionPrompt = "この写真を説明する短いキャプションを日本語で一文だけ生成してください。" +
	"句読点は最小限にし、引用符や前置きは付けないでください。"

// Captioner suggests a caption for an image file.
type Captioner interface {
	Caption(ctx context.Context, path string) (string, error)
}

// GenAICaptioner captions images with a Gemini model.
type GenAICaptioner struct {
	client *genai.Client
	model  string
}

// NewGenAICaptioner returns a captioner using apiKey and model.
func NewGenAICaptioner(ctx context.Context, apiKey string, model string) (*GenAICaptioner, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai: %w", err)
	}
	return &GenAICaptioner{client: client, model: model}, nil
}

func (g *GenAICaptioner) Caption(ctx context.Context, path string) (string, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	f, ok := imgsize.FormatForExt(filepath.Ext(path))
	if !ok {
		return "", fmt.Errorf("%w: %s", imgsize.ErrUnsupportedFormat, path)
	}
	mime := "image/" + f.String()
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(bs, mime),
			genai.NewPartFromText(CaptionPrompt),
		}, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return strings.Trim(strings.TrimSpace(resp.Text()), `"「」`), nil
}

// AutoCaption writes a sidecar caption for every photo that lacks one. The
// thumbnail is sent when present since it is smaller. It returns the number of
// sidecars written.
func AutoCaption(ctx context.Context, c *Config, cp Captioner, dryRun bool, overwrite bool) (int, error) {
	photos, err := listPhotos(c.PhotosDir(), c.ThumbsDir())
	if err != nil {
		return 0, fmt.Errorf("list photos: %w", err)
	}

	written := 0
	for _, p := range photos {
		sc, err := ReadSidecar(p)
		switch {
		case errors.Is(err, os.ErrNotExist):
			sc = &Sidecar{}
		case err != nil:
			klog.Errorf("%s: %v", p, err)
			continue
		}

		if !overwrite && sc.Caption() != "" {
			klog.Infof("%s has caption: %q", p, sc.Caption())
			continue
		}

		in := p
		if thumb := filepath.Join(c.ThumbsDir(), filepath.Base(p)); isFile(thumb) {
			in = thumb
		}

		caption, err := cp.Caption(ctx, in)
		if err != nil {
			klog.Errorf("caption %s: %v", p, err)
			continue
		}
		if caption == "" {
			klog.Warningf("empty caption for %s", p)
			continue
		}

		klog.Infof("adding caption to %s: %q", p, caption)
		if dryRun {
			continue
		}
		sc.Description = caption
		if err := WriteSidecar(p, sc); err != nil {
			return written, fmt.Errorf("write sidecar: %w", err)
		}
		written++
	}
	return written, nil
}

func isFile(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}
