package techicons

import (
	"context"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"onlevel/internal/cache"
)

const (
	DefaultBaseURL = "https://cdn.jsdelivr.net/gh/devicons/devicon/icons"
	FallbackIcon   = "/tech.svg"

	cacheTTL      = time.Hour
	cachePrefix   = "techicon:"
	maxConcurrent = 8
)

// aliases maps normalized user input to devicon names.
var aliases = map[string]string{
	"react":             "react",
	"reactjs":           "react",
	"next":              "nextjs",
	"nextjs":            "nextjs",
	"vue":               "vuejs",
	"vuejs":             "vuejs",
	"nuxt":              "nuxtjs",
	"nuxtjs":            "nuxtjs",
	"angular":           "angularjs",
	"angularjs":         "angularjs",
	"svelte":            "svelte",
	"node":              "nodejs",
	"nodejs":            "nodejs",
	"express":           "express",
	"expressjs":         "express",
	"javascript":        "javascript",
	"js":                "javascript",
	"typescript":        "typescript",
	"ts":                "typescript",
	"html":              "html5",
	"html5":             "html5",
	"css":               "css3",
	"css3":              "css3",
	"sass":              "sass",
	"scss":              "sass",
	"tailwind":          "tailwindcss",
	"tailwindcss":       "tailwindcss",
	"bootstrap":         "bootstrap",
	"redux":             "redux",
	"graphql":           "graphql",
	"go":                "go",
	"golang":            "go",
	"python":            "python",
	"django":            "django",
	"flask":             "flask",
	"java":              "java",
	"spring":            "spring",
	"kotlin":            "kotlin",
	"swift":             "swift",
	"php":               "php",
	"laravel":           "laravel",
	"ruby":              "ruby",
	"rails":             "rails",
	"c#":                "csharp",
	"csharp":            "csharp",
	"dotnet":            "dot-net",
	".net":              "dot-net",
	"rust":              "rust",
	"flutter":           "flutter",
	"dart":              "dart",
	"reactnative":       "react",
	"mongodb":           "mongodb",
	"mongo":             "mongodb",
	"mysql":             "mysql",
	"postgresql":        "postgresql",
	"postgres":          "postgresql",
	"sqlite":            "sqlite",
	"redis":             "redis",
	"firebase":          "firebase",
	"docker":            "docker",
	"kubernetes":        "kubernetes",
	"k8s":               "kubernetes",
	"aws":               "amazonwebservices",
	"amazonwebservices": "amazonwebservices",
	"azure":             "azure",
	"gcp":               "googlecloud",
	"googlecloud":       "googlecloud",
	"git":               "git",
	"github":            "github",
	"gitlab":            "gitlab",
	"linux":             "linux",
	"nginx":             "nginx",
	"figma":             "figma",
	"jest":              "jest",
	"webpack":           "webpack",
	"vite":              "vitejs",
}

var whitespace = regexp.MustCompile(`\s+`)

// Normalize maps a free-form technology name to its devicon name.
// Unknown names map to javascript.
func Normalize(tech string) string {
	key := strings.ToLower(tech)
	key = strings.TrimSuffix(key, ".js")
	key = whitespace.ReplaceAllString(key, "")
	if name, ok := aliases[key]; ok {
		return name
	}
	return "javascript"
}

// Icon is the logo resolved for one technology.
type Icon struct {
	Tech string `json:"tech"`
	URL  string `json:"url"`
}

// Resolver turns technology names into icon URLs that exist.
type Resolver struct {
	baseURL    string
	httpClient *http.Client
	cache      cache.Cache
}

func NewResolver(baseURL string, c cache.Cache) *Resolver {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if c == nil {
		c = cache.NewMemory()
	}
	return &Resolver{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
		cache:      c,
	}
}

// Resolve returns one icon per entry of stack, in order. Icons that cannot be
// confirmed fall back to FallbackIcon.
func (r *Resolver) Resolve(ctx context.Context, stack []string) ([]Icon, error) {
	icons := make([]Icon, len(stack))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for i, tech := range stack {
		name := Normalize(tech)
		url := r.baseURL + "/" + name + "/" + name + "-original.svg"
		icons[i] = Icon{Tech: tech, URL: FallbackIcon}
		g.Go(func() error {
			if r.exists(gctx, url) {
				icons[i].URL = url
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return icons, ctx.Err()
}

func (r *Resolver) exists(ctx context.Context, url string) bool {
	key := cachePrefix + url
	var ok bool
	found, err := cache.GetJSON(ctx, r.cache, key, &ok)
	if err == nil && found {
		return ok
	}

	ok = r.head(ctx, url)
	if ctx.Err() != nil {
		return false
	}
	if err := cache.SetJSON(ctx, r.cache, key, ok, cacheTTL); err != nil {
		log.Printf("[TechIcons] cache write failed: %v", err)
	}
	return ok
}

func (r *Resolver) head(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
