package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
)

// X- properties marking Free4Booking events on CalDAV servers, mirroring the
// Google extended properties.
const (
	icalPropFree4Booking = "X-FREE4BOOKING"
	icalPropRoom         = "X-FREE4BOOKING-ROOM"
)

// CalDAVProvider publishes availability to a CalDAV collection instead of
// Google. The calendar ID is then the full collection URL.
type CalDAVProvider struct {
	client    *caldav.Client
	ctx       context.Context
	serverURL string
	loc       *time.Location
}

func NewCalDAVProvider(ctx context.Context, serverURL, username, password string, loc *time.Location) (*CalDAVProvider, error) {
	baseURL, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid CalDAV server URL: %w", err)
	}

	var httpClient webdav.HTTPClient = http.DefaultClient
	if username != "" && password != "" {
		httpClient = webdav.HTTPClientWithBasicAuth(httpClient, username, password)
	}

	c, err := caldav.NewClient(httpClient, baseURL.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create CalDAV client: %w", err)
	}

	// Test connection
	_, err = c.FindCalendars(ctx, "") // Empty path means server root
	if err != nil {
		return nil, fmt.Errorf("failed to connect to CalDAV server: %w", err)
	}

	return &CalDAVProvider{
		client:    c,
		ctx:       ctx,
		serverURL: serverURL,
		loc:       loc,
	}, nil
}

func (c *CalDAVProvider) GetCalendar(calendarID string) error {
	calURL, err := url.Parse(calendarID)
	if err != nil {
		return fmt.Errorf("invalid calendar URL: %w", err)
	}

	// The calendar home set is usually the parent path
	homeSetPath := "/"
	if calURL.Path != "" {
		parts := strings.Split(strings.TrimRight(calURL.Path, "/"), "/")
		if len(parts) > 1 {
			homeSetPath = "/" + strings.Join(parts[:len(parts)-1], "/")
		}
	}

	calendars, err := c.client.FindCalendars(c.ctx, homeSetPath)
	if err != nil {
		return fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Path == calURL.Path {
			return nil
		}
	}

	return fmt.Errorf("calendar not found at path: %s", calURL.Path)
}

func (c *CalDAVProvider) AddEvent(calendarID string, event *Event) (string, error) {
	calURL, err := url.Parse(calendarID)
	if err != nil {
		return "", fmt.Errorf("invalid calendar URL: %w", err)
	}

	eventUID := fmt.Sprintf("free4booking-%d", time.Now().UnixNano())

	icalEvent := ical.NewEvent()
	icalEvent.Component.Props.SetText("UID", eventUID)
	icalEvent.Component.Props.SetText("SUMMARY", event.Summary)
	icalEvent.Component.Props.SetText("DESCRIPTION", event.Description)
	icalEvent.Component.Props.SetDateTime("DTSTART", event.Start)
	icalEvent.Component.Props.SetDateTime("DTEND", event.End)
	icalEvent.Component.Props.SetText("STATUS", "CONFIRMED")
	if event.Transparent {
		icalEvent.Component.Props.SetText("TRANSP", "TRANSPARENT")
	}
	if event.Free4Booking {
		icalEvent.Component.Props.SetText(icalPropFree4Booking, "1")
		icalEvent.Component.Props.SetText(icalPropRoom, event.Room)
	}

	calendar := ical.NewCalendar()
	calendar.Component.Children = append(calendar.Component.Children, icalEvent.Component)

	path := calURL.Path + "/" + eventUID + ".ics"

	_, err = c.client.PutCalendarObject(c.ctx, path, calendar)
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}

	return eventUID, nil
}

func (c *CalDAVProvider) DeleteEvent(calendarID string, eventID string) error {
	calURL, err := url.Parse(calendarID)
	if err != nil {
		return fmt.Errorf("invalid calendar URL: %w", err)
	}

	path := calURL.Path + "/" + eventID + ".ics"

	err = c.client.Client.RemoveAll(c.ctx, path)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	return nil
}

func (c *CalDAVProvider) ListEvents(calendarID string, timeMin, timeMax time.Time) ([]*Event, error) {
	calURL, err := url.Parse(calendarID)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar URL: %w", err)
	}

	query := &caldav.CalendarQuery{
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{{
				Name:  "VEVENT",
				Start: timeMin,
				End:   timeMax,
			}},
		},
	}

	objects, err := c.client.QueryCalendar(c.ctx, calURL.Path, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	var result []*Event
	for _, obj := range objects {
		for _, comp := range obj.Data.Component.Children {
			if comp.Name != "VEVENT" {
				continue
			}
			result = append(result, c.toEvent(comp))
		}
	}

	return result, nil
}

func (c *CalDAVProvider) toEvent(comp *ical.Component) *Event {
	status := strings.ToLower(getTextProp(comp.Props, "STATUS"))
	if status == "" {
		status = "confirmed"
	}

	start, _ := comp.Props.DateTime("DTSTART", c.loc)
	end, _ := comp.Props.DateTime("DTEND", c.loc)

	return &Event{
		ID:           getTextProp(comp.Props, "UID"),
		Summary:      getTextProp(comp.Props, "SUMMARY"),
		Description:  getTextProp(comp.Props, "DESCRIPTION"),
		Start:        start,
		End:          end,
		Status:       status,
		Transparent:  getTextProp(comp.Props, "TRANSP") == "TRANSPARENT",
		Free4Booking: getTextProp(comp.Props, icalPropFree4Booking) == "1",
		Room:         getTextProp(comp.Props, icalPropRoom),
	}
}

// Helper function to get text property safely
func getTextProp(props ical.Props, name string) string {
	prop := props.Get(name)
	if prop == nil {
		return ""
	}
	return prop.Value
}
