package config

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	Fs         afero.Fs
	ConfigFile string // explicit config file path (optional)
	EnvFile    string // explicit .env file path (optional)
	EnvPrefix  string // only bind variables starting with PREFIX_ (optional)
	Environ    []string
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFs sets the filesystem config and env files are read from.
func WithFs(fs afero.Fs) LoaderOption {
	return func(lc *LoaderConfig) { lc.Fs = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(p string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = p }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(p string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = p }
}

// WithEnvPrefix restricts environment binding to variables named
// PREFIX_..., with the prefix stripped before key mapping.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = strings.ToUpper(prefix) }
}

// WithEnviron replaces the process environment, as returned by os.Environ.
func WithEnviron(environ []string) LoaderOption {
	return func(lc *LoaderConfig) { lc.Environ = environ }
}

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns explicit paths when set and otherwise searches the
// standard locations for serviceName.
func ResolveFiles(fs afero.Fs, serviceName string, lc LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{ConfigFile: lc.ConfigFile, EnvFile: lc.EnvFile}
	dirs := searchDirs(serviceName)
	if resolved.ConfigFile == "" {
		resolved.ConfigFile = firstExisting(fs, dirs, "config.yml", "config.yaml")
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = firstExisting(fs, dirs, ".env."+serviceName, ".env")
	}
	return resolved
}

// searchDirs lists candidate directories, most specific first.
func searchDirs(serviceName string) []string {
	names := []string{serviceName}
	if idx := strings.LastIndex(serviceName, "-"); idx != -1 {
		names = append(names, serviceName[idx+1:])
	}
	var dirs []string
	for _, up := range []string{".", "..", "../.."} {
		for _, n := range names {
			dirs = append(dirs, path.Join(up, "cmd", n))
		}
	}
	return append(dirs, "./config", "../config", ".")
}

func firstExisting(fs afero.Fs, dirs []string, files ...string) string {
	for _, f := range files {
		for _, d := range dirs {
			p := path.Join(d, f)
			if ok, _ := afero.Exists(fs, p); ok {
				return p
			}
		}
	}
	return ""
}

// LoadConfig loads configuration for a service into cfg. Values come from,
// in increasing precedence: the YAML config file, the .env file, and the
// process environment.
func LoadConfig(serviceName string, cfg interface{}, opts ...LoaderOption) error {
	lc := LoaderConfig{Fs: afero.NewOsFs()}
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.Environ == nil {
		lc.Environ = os.Environ()
	}
	files := ResolveFiles(lc.Fs, serviceName, lc)

	v := viper.New()
	v.SetFs(lc.Fs)
	if files.ConfigFile != "" {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", files.ConfigFile, err)
		}
	}

	env := map[string]string{}
	if files.EnvFile != "" {
		dotenv, err := readEnvFile(lc.Fs, files.EnvFile)
		if err != nil {
			return err
		}
		env = dotenv
	}
	for _, kv := range lc.Environ {
		if k, val, ok := strings.Cut(kv, "="); ok {
			env[k] = val
		}
	}
	bindEnv(v, env, lc.EnvPrefix)

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config for service %s: %w", serviceName, err)
	}
	return nil
}

func readEnvFile(fs afero.Fs, p string) (map[string]string, error) {
	f, err := fs.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open env file %s: %w", p, err)
	}
	defer f.Close()
	env, err := godotenv.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse env file %s: %w", p, err)
	}
	return env, nil
}

// bindEnv sets every key variant of each variable on v.
func bindEnv(v *viper.Viper, env map[string]string, prefix string) {
	for key, value := range env {
		if prefix != "" {
			stripped, ok := strings.CutPrefix(key, prefix+"_")
			if !ok {
				continue
			}
			key = stripped
		}
		for _, variant := range envKeyVariants(key) {
			v.Set(variant, value)
		}
	}
}

// envKeyVariants maps an UPPER_SNAKE variable onto the nested keys it may
// address, since an underscore may separate either sections or words:
//
//	REDIS_POOL_SIZE -> [redis_pool_size, redis.pool_size, redis.pool.size]
func envKeyVariants(envKey string) []string {
	lower := strings.ToLower(envKey)
	parts := strings.Split(lower, "_")
	variants := []string{lower}
	for i := 1; i < len(parts); i++ {
		variants = append(variants, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
	}
	return variants
}
