// Terminal client for the cricket server. Logs in over HTTP, speaks the
// websocket event protocol and renders the board between turns.
package main

import (
	"api/game"
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"
)

var (
	serverAddr = flag.String("server", "http://localhost:5000", "server base URL")
	username   = flag.String("user", "", "account username")
	password   = flag.String("pass", "", "account password")
	signup     = flag.Bool("signup", false, "create the account before logging in")
)

var (
	infoColor  = color.New(color.FgCyan)
	boardColor = color.New(color.FgYellow)
	turnColor  = color.New(color.FgGreen, color.Bold)
	errColor   = color.New(color.FgRed)
	winColor   = color.New(color.FgGreen, color.Bold)
	loseColor  = color.New(color.FgRed, color.Bold)
)

func authenticate() (*http.Cookie, error) {
	body, _ := json.Marshal(map[string]string{"username": *username, "password": *password})

	path := "/auth/login"
	if *signup {
		path = "/auth/signup"
	}

	resp, err := http.Post(*serverAddr+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := bufio.NewReader(resp.Body).ReadString('\n')
		return nil, fmt.Errorf("auth failed (%d): %s", resp.StatusCode, msg)
	}

	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			return c, nil
		}
	}
	return nil, fmt.Errorf("no session cookie in auth response")
}

func wsURL() (string, error) {
	u, err := url.Parse(*serverAddr)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/game/ws"
	return u.String(), nil
}

func marksCell(marks int) string {
	switch marks {
	case 0:
		return "   "
	case 1:
		return "/  "
	case 2:
		return "X  "
	default:
		return "(X)"
	}
}

func renderBoard(s *game.MatchState) {
	boardColor.Printf("\nRound %d/%d — rolls left: %d\n", s.Round, s.MaxRounds, s.RollsLeft)
	fmt.Printf("%-12s", "")
	for _, t := range s.Targets {
		fmt.Printf("%-6s", strings.ToUpper(string(t)))
	}
	fmt.Println("score")
	for i, p := range s.Players {
		marker := "  "
		if i == s.CurrentPlayerIndex && !s.IsGameOver {
			marker = "> "
		}
		fmt.Printf("%s%-10s", marker, p.Name)
		for _, t := range s.Targets {
			fmt.Printf("%-6s", marksCell(p.Marks[t]))
		}
		fmt.Printf("%d\n", p.Score)
	}
	if s.LastRoll != "" {
		infoColor.Println(s.LastRoll)
	}
	if !s.IsGameOver {
		turnColor.Printf("%s to throw\n", s.Players[s.CurrentPlayerIndex].Name)
	}
}

func readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			errColor.Println("connection closed:", err)
			return
		}

		var ev game.ServerEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}

		switch ev.Type {
		case game.EventRoomCreated:
			infoColor.Printf("room %q created, waiting for an opponent...\n", ev.RoomID)
		case game.EventGameStart:
			turnColor.Println("opponent joined, game on!")
			renderBoard(ev.State)
		case game.EventUpdateState:
			renderBoard(ev.State)
		case game.EventGameOver:
			renderBoard(ev.State)
			switch {
			case ev.Winner == nil:
				boardColor.Println("it's a draw!")
			case ev.Winner.Name == *username:
				winColor.Printf("%s wins!\n", ev.Winner.Name)
			default:
				loseColor.Printf("%s wins!\n", ev.Winner.Name)
			}
			infoColor.Println("create or join another room to play again")
		case game.EventErrorMsg:
			errColor.Println(ev.Text)
		case game.EventOpponentLeft:
			errColor.Println("opponent left, the room is gone")
			infoColor.Println("create or join another room to play again")
		}
	}
}

func send(conn *websocket.Conn, ev game.ClientEvent) {
	data, _ := json.Marshal(ev)
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		errColor.Println("send failed:", err)
	}
}

func inputLoop(conn *websocket.Conn) {
	scanner := bufio.NewScanner(os.Stdin)
	infoColor.Println("commands: create <room> | join <room> | roll <20..15|bull> | quit")
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "create":
			if len(fields) < 2 {
				errColor.Println("usage: create <room>")
				continue
			}
			send(conn, game.ClientEvent{Type: game.EventCreateRoom, RoomID: fields[1], PlayerName: *username})
		case "join":
			if len(fields) < 2 {
				errColor.Println("usage: join <room>")
				continue
			}
			send(conn, game.ClientEvent{Type: game.EventJoinRoom, RoomID: fields[1], PlayerName: *username})
		case "roll":
			if len(fields) < 2 {
				errColor.Println("usage: roll <20..15|bull>")
				continue
			}
			send(conn, game.ClientEvent{Type: game.EventRollDice, Target: game.Target(fields[1])})
		case "quit":
			conn.Close()
			return
		default:
			errColor.Println("unknown command:", fields[0])
		}
	}
}

func main() {
	flag.Parse()
	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "both -user and -pass are required")
		os.Exit(1)
	}

	cookie, err := authenticate()
	if err != nil {
		errColor.Println(err)
		os.Exit(1)
	}
	infoColor.Printf("logged in as %s\n", *username)

	endpoint, err := wsURL()
	if err != nil {
		errColor.Println(err)
		os.Exit(1)
	}

	header := http.Header{}
	header.Set("Cookie", cookie.String())
	conn, _, err := websocket.DefaultDialer.Dial(endpoint, header)
	if err != nil {
		errColor.Println("websocket dial failed:", err)
		os.Exit(1)
	}
	defer conn.Close()

	done := make(chan struct{})
	go readLoop(conn, done)
	go inputLoop(conn)
	<-done
}
