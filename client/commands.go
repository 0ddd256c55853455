package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"stranger-chat/domain"
	"stranger-chat/domain/mimetypes"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

// maxMediaBytes mirrors the browser client limit.
const maxMediaBytes = 5 << 20

type action int

const (
	actionNone action = iota
	actionSend
	actionQuit
	actionHelp
)

type input struct {
	action action
	frame  []byte
}

type frame struct {
	Type       string       `json:"type"`
	Data       any          `json:"data,omitempty"`
	Preference string       `json:"preference,omitempty"`
	Message    *string      `json:"message,omitempty"`
	Partner    *wireProfile `json:"partner,omitempty"`
}

type wireProfile struct {
	Username     string `json:"username"`
	Gender       string `json:"gender"`
	ProfileImage string `json:"profileImage,omitempty"`
}

func profileFrame(username, gender, avatar string) ([]byte, error) {
	if _, ok := domain.ParseGender(gender); !ok {
		return nil, fmt.Errorf("CHAT_GENDER must be female, male or transgender, got %q", gender)
	}
	return json.Marshal(frame{Type: "user_info", Data: wireProfile{Username: username, Gender: gender, ProfileImage: avatar}})
}

// parseInput turns a terminal line into a client frame.
func parseInput(line string) (input, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return input{action: actionNone}, nil
	}
	if !strings.HasPrefix(line, "/") {
		return send(frame{Type: "message", Message: &line})
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/find":
		if arg == "" {
			arg = string(domain.PreferAnyone)
		}
		preference, ok := domain.ParsePreference(arg)
		if !ok {
			return input{}, fmt.Errorf("unknown preference %q, expected female, male, transgender or anyone", arg)
		}
		return send(frame{Type: "find_partner", Preference: string(preference)})
	case "/cancel":
		return send(frame{Type: "cancel_search"})
	case "/leave":
		return send(frame{Type: "disconnect"})
	case "/image", "/video":
		kind := strings.TrimPrefix(cmd, "/")
		uri, err := mediaURI(kind, arg)
		if err != nil {
			return input{}, err
		}
		return send(frame{Type: kind, Data: uri})
	case "/quit":
		return input{action: actionQuit}, nil
	case "/help":
		return input{action: actionHelp}, nil
	default:
		return input{}, fmt.Errorf("unknown command %s, type /help", cmd)
	}
}

func send(f frame) (input, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return input{}, err
	}
	return input{action: actionSend, frame: b}, nil
}

// mediaURI accepts an http(s) URL as is, or reads a local file into a data URI.
func mediaURI(kind, arg string) (string, error) {
	if arg == "" {
		return "", fmt.Errorf("usage: /%s <file or url>", kind)
	}
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return arg, nil
	}

	info, err := os.Stat(arg)
	if err != nil {
		return "", err
	}
	if info.Size() > maxMediaBytes {
		return "", errors.New("file size must be less than 5MB")
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return "", err
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), kind+"/") {
		return "", fmt.Errorf("%s is not a %s file (%s)", arg, kind, mt.String())
	}
	return "data:" + mt.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// render prints a server frame for a human.
func render(w io.Writer, data []byte) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		fmt.Fprintln(w, color.Red.Render("unreadable frame: "+err.Error()))
		return
	}

	switch f.Type {
	case "user_connected":
		fmt.Fprintln(w, color.Cyan.Render("Profile accepted. Use /find <preference> to meet someone."))
	case "partner_found":
		fmt.Fprintln(w, color.Green.Render("Partner found!"))
		if f.Partner != nil {
			renderPartner(w, *f.Partner)
		}
	case "message":
		text := ""
		if f.Message != nil {
			text = *f.Message
		}
		fmt.Fprintln(w, color.New(color.FgGreen, color.OpBold).Render("Stranger: ")+text)
	case "image", "video":
		uri, _ := f.Data.(string)
		fmt.Fprintln(w, color.Magenta.Render(fmt.Sprintf("Stranger sent a %s (%s, %d bytes)", f.Type, mimetypes.FromDataURI(uri), len(uri))))
	case "partner_disconnected":
		fmt.Fprintln(w, color.Yellow.Render("Partner has disconnected"))
	case "error":
		text := ""
		if f.Message != nil {
			text = *f.Message
		}
		fmt.Fprintln(w, color.Red.Render("Error: "+text))
	default:
		fmt.Fprintln(w, color.Gray.Render("unknown frame "+f.Type))
	}
}

func renderPartner(w io.Writer, p wireProfile) {
	avatar := "none"
	if p.ProfileImage != "" {
		avatar = string(mimetypes.FromDataURI(p.ProfileImage))
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Username", "Gender", "Avatar"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.Append([]string{p.Username, p.Gender, avatar})
	table.Render()
}

func printInfo(msg string) {
	fmt.Println(color.Cyan.Render(msg))
}

func printError(msg string) {
	fmt.Println(color.Red.Render(msg))
}

func printHelp() {
	fmt.Println(`Commands:
  /find [female|male|transgender|anyone]  look for a partner
  /cancel                                 stop searching
  /leave                                  leave the current conversation
  /image <file|url>                       send a picture
  /video <file|url>                       send a video
  /quit                                   close the client
Anything else is sent as a message.`)
}
