package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

type CalDAVConfig struct {
	ServerURL string `toml:"server_url"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// RoomConfig describes one bookable room. Pattern is the exact text the
// booking page uses for the room, Name is the shorter label used in event
// summaries.
type RoomConfig struct {
	Name    string `toml:"name"`
	Pattern string `toml:"pattern"`
}

// SlotConfig defines one half-day period as local wall-clock times, "HH:MM".
type SlotConfig struct {
	Start string `toml:"start"`
	End   string `toml:"end"`
}

type Config struct {
	Timezone        string `toml:"timezone"`
	HorizonDays     int    `toml:"horizon_days"`
	VerbosityLevel  int    `toml:"verbosity_level"`
	Provider        string `toml:"provider"`
	CalDAVServer    string `toml:"caldav_server"`
	ImportBookings  *bool  `toml:"import_bookings"`
	MinStaffPerRole int    `toml:"min_staff_per_role"`

	CredentialsFile  string `toml:"credentials_file"`
	TokenFile        string `toml:"token_file"`
	CalendarIDFile   string `toml:"calendar_id_file"`
	ScrapeURLFile    string `toml:"scrape_url_file"`
	WorkScheduleFile string `toml:"work_schedule_file"`

	Rooms    []RoomConfig            `toml:"rooms"`
	Slots    map[string]SlotConfig   `toml:"slots"`
	Weekdays map[string]string       `toml:"weekdays"`
	CalDAVs  map[string]CalDAVConfig `toml:"caldav_servers"`
}

var verbosityLevel int
var configDir string

func readConfig(filename string) (*Config, error) {
	// Try first current dir, then `$HOME/.config/free4booking/`
	data, err := os.ReadFile(filename)
	if err != nil {
		data, err = os.ReadFile(os.Getenv("HOME") + "/.config/free4booking/" + filename)
		if err != nil {
			return nil, err
		}
		configDir = os.Getenv("HOME") + "/.config/free4booking/"
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	config.applyDefaults()

	verbosityLevel = config.VerbosityLevel

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Timezone == "" {
		c.Timezone = "Europe/Brussels"
	}
	if c.HorizonDays == 0 {
		c.HorizonDays = 20
	}
	if c.Provider == "" {
		c.Provider = "google"
	}
	if c.MinStaffPerRole == 0 {
		c.MinStaffPerRole = 1
	}
	if c.CredentialsFile == "" {
		c.CredentialsFile = "credentials.json"
	}
	if c.TokenFile == "" {
		c.TokenFile = "token.json"
	}
	if c.CalendarIDFile == "" {
		c.CalendarIDFile = "calendar_id.json"
	}
	if c.ScrapeURLFile == "" {
		c.ScrapeURLFile = "scrape_url.json"
	}
	if c.WorkScheduleFile == "" {
		c.WorkScheduleFile = "work_schedule.json"
	}
	if len(c.Rooms) == 0 {
		c.Rooms = []RoomConfig{{
			Name:    "lokaal FA1",
			Pattern: "lokaal FA1 (kooi van Faraday)",
		}}
	}
	if len(c.Slots) == 0 {
		c.Slots = map[string]SlotConfig{
			"Voormiddag": {Start: "09:00", End: "12:00"},
			"Namiddag":   {Start: "13:00", End: "17:00"},
		}
	}
}

func (c *Config) importEnabled() bool {
	return c.ImportBookings == nil || *c.ImportBookings
}

func (c *Config) location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// slotPeriod is a parsed SlotConfig, clocks are minutes after local midnight.
type slotPeriod struct {
	Name       string
	StartClock int
	EndClock   int
}

// slotPeriods parses the configured half-day periods and returns them ordered
// by start time, so runs and reports are deterministic.
func (c *Config) slotPeriods() ([]slotPeriod, error) {
	periods := make([]slotPeriod, 0, len(c.Slots))
	for name, slot := range c.Slots {
		start, err := parseClock(slot.Start)
		if err != nil {
			return nil, fmt.Errorf("slot %s: %w", name, err)
		}
		end, err := parseClock(slot.End)
		if err != nil {
			return nil, fmt.Errorf("slot %s: %w", name, err)
		}
		if end <= start {
			return nil, fmt.Errorf("slot %s: end %s is not after start %s", name, slot.End, slot.Start)
		}
		periods = append(periods, slotPeriod{Name: name, StartClock: start, EndClock: end})
	}
	sort.Slice(periods, func(i, j int) bool {
		if periods[i].StartClock != periods[j].StartClock {
			return periods[i].StartClock < periods[j].StartClock
		}
		return periods[i].Name < periods[j].Name
	})
	return periods, nil
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func openDB(filename string) (*sql.DB, error) {
	// Try first the same dir, where the config file was found
	db, err := sql.Open("sqlite3", configDir+filename)
	if err != nil {
		// Try the current dir
		db, err = sql.Open("sqlite3", filename)
		if err != nil {
			return nil, err
		}
	}
	return db, nil
}

// googleClient builds an authenticated HTTP client from the credentials and
// token sources. A missing token falls back to the interactive authorization
// flow, but only when someone is actually at the keyboard; the scheduled CI
// run has to fail instead of hanging on a prompt.
func googleClient(ctx context.Context, config *Config) (*http.Client, error) {
	credsJSON, err := loadSourceBytes("GOOGLE_CREDENTIALS", config.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("loading Google credentials: %w", err)
	}
	oauthConfig, err := google.ConfigFromJSON(credsJSON, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("parsing Google credentials: %w", err)
	}

	token, err := loadToken(config)
	if err != nil {
		if !stdinIsTerminal() {
			return nil, fmt.Errorf("no usable token (%v) and no terminal for the authorization flow", err)
		}
		fmt.Printf("  ❗️ No token found. Obtaining a new token.\n")
		token = getTokenFromWeb(oauthConfig)
		if err := saveToken(config.TokenFile, token); err != nil {
			return nil, fmt.Errorf("saving token: %w", err)
		}
	}

	newToken, err := oauthConfig.TokenSource(ctx, token).Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}
	if newToken.AccessToken != token.AccessToken {
		printVerbosely(2, "  🔑 Token refreshed, saving to %s\n", config.TokenFile)
		if err := saveToken(config.TokenFile, newToken); err != nil {
			log.Printf("Warning: could not save refreshed token: %v", err)
		}
	}

	return oauthConfig.Client(ctx, newToken), nil
}

func loadToken(config *Config) (*oauth2.Token, error) {
	data, err := loadSourceBytes("GOOGLE_TOKEN", config.TokenFile)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid token document: %w", err)
	}
	return &token, nil
}

func saveToken(filename string, token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0600)
}

func getTokenFromWeb(config *oauth2.Config) *oauth2.Token {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser then type the "+
		"authorization code: \n%v\n", authURL)

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		log.Fatalf("Unable to read authorization code: %v", err)
	}

	tok, err := config.Exchange(context.TODO(), authCode)
	if err != nil {
		log.Fatalf("Unable to retrieve token from web: %v", err)
	}
	return tok
}

func stdinIsTerminal() bool {
	info, err := os.Stdin.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func printVerbosely(verbosity int, format string, a ...interface{}) {
	// Print only if verbosity is higher than verbosityLevel
	// verbosityLevel is set in the config file
	// 0 - no output, other than critical errors
	// 1 - run phases
	// 2 - per-source counts and token handling
	// 3 - report on events created, blocked or removed
	// 4 - report on slots and imports skipped
	// 5 - report everything
	if verbosity <= verbosityLevel {
		fmt.Printf(format, a...)
	}
}
