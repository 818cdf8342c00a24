package handler

import (
	"github.com/whoyou/whoyou/internal/api/form"
	"github.com/whoyou/whoyou/internal/api/render"
	"github.com/whoyou/whoyou/internal/directory"
)

type teamRefView struct {
	Name    string `json:"name"`
	Href    string `json:"href"`
	IsAdmin bool   `json:"isAdmin"`
}

type memberRefView struct {
	Name    string `json:"name"`
	Href    string `json:"href"`
	IsAdmin bool   `json:"isAdmin"`
}

type accountView struct {
	Name        string               `json:"name"`
	Email       string               `json:"email,omitempty"`
	Description string               `json:"description,omitempty"`
	Teams       []teamRefView        `json:"teams"`
	Properties  directory.Properties `json:"properties,omitempty"`
	Href        string               `json:"href"`
}

type teamView struct {
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Members     []memberRefView      `json:"members"`
	Admins      []string             `json:"admins"`
	Properties  directory.Properties `json:"properties,omitempty"`
	Href        string               `json:"href"`
}

type accountsData struct {
	Accounts   []accountView `json:"accounts"`
	Operations []render.Link `json:"operations"`
}

type accountData struct {
	Account    accountView   `json:"account"`
	Operations []render.Link `json:"operations"`
}

type teamsData struct {
	Teams      []teamView    `json:"teams"`
	Operations []render.Link `json:"operations"`
}

type teamData struct {
	Team       teamView      `json:"team"`
	Operations []render.Link `json:"operations"`
}

// formData drives both the HTML form template and the JSON form description.
type formData struct {
	Fields []form.Field      `json:"fields"`
	Values map[string]string `json:"values,omitempty"`
	Href   string            `json:"href"`
	Submit string            `json:"submit"`
	Cancel string            `json:"cancel,omitempty"`
}

func accountHref(name string) string { return "/account/" + name }
func teamHref(name string) string    { return "/team/" + name }
