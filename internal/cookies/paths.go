package cookies

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// DefaultChromeProfile is the profile Chrome creates on first run.
const DefaultChromeProfile = "Default"

// Locator finds browser cookie stores under a home directory.
type Locator struct {
	Fs     afero.Fs
	Home   string
	GOOS   string
	Getenv func(string) string
}

// NewLocator returns a Locator for the current user and OS.
func NewLocator() (*Locator, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return &Locator{Fs: afero.NewOsFs(), Home: home, GOOS: runtime.GOOS, Getenv: os.Getenv}, nil
}

// Resolve turns a --cookies-from value into a cookie file path. Accepted
// values are "chrome", "chrome:<profile>", "firefox" or a file path.
func (l *Locator) Resolve(from string) (string, error) {
	name, profile, _ := strings.Cut(from, ":")
	switch strings.ToLower(name) {
	case "chrome":
		return l.ChromeCookiePath(profile)
	case "firefox":
		return l.FirefoxCookiePath()
	}
	if ok, _ := afero.Exists(l.Fs, from); !ok {
		return "", fmt.Errorf("cookie file not found: %s", from)
	}
	return from, nil
}

// ChromeCookiePath returns the Cookies database of a Chrome profile.
func (l *Locator) ChromeCookiePath(profile string) (string, error) {
	if profile == "" {
		profile = DefaultChromeProfile
	}
	userDataDir, err := l.chromeUserDataDir()
	if err != nil {
		return "", err
	}

	base := filepath.Join(userDataDir, profile)
	for _, p := range []string{filepath.Join(base, "Network", "Cookies"), filepath.Join(base, "Cookies")} {
		if ok, _ := afero.Exists(l.Fs, p); ok {
			return p, nil
		}
	}
	return "", fmt.Errorf("Chrome cookie store not found in profile %q", profile)
}

// ListChromeProfiles returns the Chrome profiles that have a Preferences file.
func (l *Locator) ListChromeProfiles() ([]string, error) {
	userDataDir, err := l.chromeUserDataDir()
	if err != nil {
		return nil, err
	}

	entries, err := afero.ReadDir(l.Fs, userDataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read Chrome user data directory: %w", err)
	}

	var profiles []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		// Chrome profiles are named "Default", "Profile 1", "Profile 2", etc.
		if name != DefaultChromeProfile && !strings.HasPrefix(name, "Profile ") {
			continue
		}
		if ok, _ := afero.Exists(l.Fs, filepath.Join(userDataDir, name, "Preferences")); ok {
			profiles = append(profiles, name)
		}
	}
	sort.Strings(profiles)
	return profiles, nil
}

func (l *Locator) chromeUserDataDir() (string, error) {
	var dir string
	switch l.GOOS {
	case "darwin":
		dir = filepath.Join(l.Home, "Library", "Application Support", "Google", "Chrome")
	case "linux":
		dir = filepath.Join(l.Home, ".config", "google-chrome")
	case "windows":
		localAppData := ""
		if l.Getenv != nil {
			localAppData = l.Getenv("LOCALAPPDATA")
		}
		if localAppData == "" {
			localAppData = filepath.Join(l.Home, "AppData", "Local")
		}
		dir = filepath.Join(localAppData, "Google", "Chrome", "User Data")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", l.GOOS)
	}

	if ok, _ := afero.DirExists(l.Fs, dir); !ok {
		return "", fmt.Errorf("Chrome user data directory not found at %s", dir)
	}
	return dir, nil
}

// FirefoxCookiePath returns cookies.sqlite of the default Firefox profile.
func (l *Locator) FirefoxCookiePath() (string, error) {
	var inis []string
	switch l.GOOS {
	case "darwin":
		inis = []string{filepath.Join(l.Home, "Library", "Application Support", "Firefox", "profiles.ini")}
	case "windows":
		appData := ""
		if l.Getenv != nil {
			appData = l.Getenv("APPDATA")
		}
		if appData == "" {
			appData = filepath.Join(l.Home, "AppData", "Roaming")
		}
		inis = []string{filepath.Join(appData, "Mozilla", "Firefox", "profiles.ini")}
	default:
		inis = []string{
			filepath.Join(l.Home, ".mozilla", "firefox", "profiles.ini"),
			filepath.Join(l.Home, "snap", "firefox", "common", ".mozilla", "firefox", "profiles.ini"),
		}
	}

	for _, ini := range inis {
		profileDir := l.defaultFirefoxProfile(ini)
		if profileDir == "" {
			continue
		}
		p := filepath.Join(profileDir, "cookies.sqlite")
		if ok, _ := afero.Exists(l.Fs, p); ok {
			return p, nil
		}
	}
	return "", fmt.Errorf("Firefox cookie store not found")
}

// defaultFirefoxProfile reads profiles.ini and returns the default profile
// directory. An [Install*] Default= entry wins over a [Profile*] with
// Default=1. Relative paths are resolved against the ini's directory.
func (l *Locator) defaultFirefoxProfile(iniPath string) string {
	f, err := l.Fs.Open(iniPath)
	if err != nil {
		return ""
	}
	defer f.Close()

	iniDir := filepath.Dir(iniPath)
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(iniDir, filepath.FromSlash(p))
	}

	var (
		installDefault, profileDefault string
		section, currentPath           string
		currentIsDefault               bool
	)
	flush := func() {
		if strings.HasPrefix(section, "Profile") && currentIsDefault && profileDefault == "" {
			profileDefault = currentPath
		}
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			flush()
			section = strings.Trim(line, "[]")
			currentPath, currentIsDefault = "", false
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key, val := strings.TrimSpace(k), strings.TrimSpace(v)
		switch {
		case strings.HasPrefix(section, "Install") && key == "Default" && installDefault == "":
			installDefault = resolve(val)
		case strings.HasPrefix(section, "Profile") && key == "Path":
			currentPath = resolve(val)
		case strings.HasPrefix(section, "Profile") && key == "Default" && val == "1":
			currentIsDefault = true
		}
	}
	flush()

	if installDefault != "" {
		return installDefault
	}
	return profileDefault
}
