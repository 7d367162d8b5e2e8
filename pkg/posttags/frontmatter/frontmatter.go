// Package frontmatter reads and writes the YAML block that opens a
// Jekyll-style post.
package frontmatter

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/posttags/pkg/posttags/internalerr"
)

const (
	delimiter  = "---"
	dateLayout = "2006-01-02"
)

// FrontPage is the metadata block written ahead of a post
type FrontPage struct {
	Title      string   `yaml:"title"`
	Categories []string `yaml:"categories"`
	Tags       []string `yaml:"tags"`
	Date       string   `yaml:"date"`
	Permalink  string   `yaml:"permalink"`
}

// New builds a front page for a post published on date
func New(date time.Time, title string, categories, tags []string) FrontPage {
	if categories == nil {
		categories = []string{}
	}
	if tags == nil {
		tags = []string{}
	}
	return FrontPage{
		Title:      title,
		Categories: categories,
		Tags:       tags,
		Date:       date.Format(dateLayout),
		Permalink:  fmt.Sprintf("posts/%s/blog-post_%s", date.Format("2006/01/02"), slug(title)),
	}
}

// Filename returns the post file name (without extension) for date and title.
//
// Example:
//   - Filename(2022-10-24, "The Title") -> "2022-10-24-blog-post_the_title"
func Filename(date time.Time, title string) string {
	return date.Format(dateLayout) + "-blog-post_" + slug(title)
}

func slug(title string) string {
	return strings.ReplaceAll(strings.ToLower(title), " ", "_")
}

// Split separates a leading front-matter block from the post body. CRLF
// line endings are read as LF, and the body comes back with LF endings.
// A post without a block yields an empty map and the whole post as body.
func Split(post string) (map[string]any, string, error) {
	meta := map[string]any{}
	post = strings.ReplaceAll(post, "\r\n", "\n")

	rest, ok := strings.CutPrefix(strings.TrimPrefix(post, "\ufeff"), delimiter+"\n")
	if !ok {
		return meta, post, nil
	}

	var block, body string
	if strings.HasPrefix(rest, delimiter+"\n") || rest == delimiter {
		block, body = "", strings.TrimPrefix(strings.TrimPrefix(rest, delimiter), "\n")
	} else {
		end := strings.Index(rest, "\n"+delimiter+"\n")
		switch {
		case end >= 0:
			block, body = rest[:end+1], rest[end+len(delimiter)+2:]
		case strings.HasSuffix(rest, "\n"+delimiter):
			block, body = rest[:len(rest)-len(delimiter)], ""
		default:
			return nil, "", fmt.Errorf("unterminated block: %w", internalerr.ErrMalformedMetadata)
		}
	}

	if strings.TrimSpace(block) == "" {
		return meta, body, nil
	}
	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		return nil, "", fmt.Errorf("%w: %v", internalerr.ErrMalformedMetadata, err)
	}
	if meta == nil {
		meta = map[string]any{}
	}
	return meta, body, nil
}

// Title returns the first line of text with heading marks removed
func Title(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return strings.TrimSpace(strings.ReplaceAll(line, "#", ""))
}

// Render writes fp as a delimited YAML block followed by body
func Render(fp FrontPage, body string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fp); err != nil {
		return nil, fmt.Errorf("encode front page: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode front page: %w", err)
	}

	buf.WriteString(delimiter + "\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}
