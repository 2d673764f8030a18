// Command roster prints the active rooms of a running chat relay, or the members of one room.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"chatrelay/internal/app/chat"
)

type envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type roomList struct {
	Rooms []chat.RoomSummary `json:"rooms"`
	Total int                `json:"total"`
}

func main() {
	server := flag.String("server", "http://localhost:8080", "Base URL of the chat relay")
	room := flag.String("room", "", "Show the members of this room instead of the room list")
	timeout := flag.Duration("timeout", 5*time.Second, "Request timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := &http.Client{}

	var err error
	if *room != "" {
		var data chat.RoomData
		if data, err = fetchRoom(ctx, client, *server, *room); err == nil {
			renderRoster(os.Stdout, data)
		}
	} else {
		var list roomList
		if list, err = fetchRooms(ctx, client, *server); err == nil {
			renderRooms(os.Stdout, list)
		}
	}

	if err != nil {
		color.Error.Println(err.Error())
		os.Exit(1)
	}
}

func fetchRooms(ctx context.Context, client *http.Client, baseURL string) (roomList, error) {
	return getData[roomList](ctx, client, baseURL+"/api/rooms")
}

func fetchRoom(ctx context.Context, client *http.Client, baseURL, room string) (chat.RoomData, error) {
	return getData[chat.RoomData](ctx, client, baseURL+"/api/rooms/"+url.PathEscape(room))
}

func getData[T any](ctx context.Context, client *http.Client, endpoint string) (T, error) {
	var zero T

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return zero, fmt.Errorf("build request: %w", err)
	}

	res, err := client.Do(req)
	if err != nil {
		return zero, fmt.Errorf("GET %s: %w", endpoint, err)
	}
	defer res.Body.Close()

	var env envelope[T]
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return zero, fmt.Errorf("decode response from %s (HTTP %d): %w", endpoint, res.StatusCode, err)
	}
	if env.Code != 0 {
		return zero, fmt.Errorf("server error %d: %s", env.Code, env.Message)
	}
	return env.Data, nil
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	return table
}

func renderRooms(w io.Writer, list roomList) {
	if len(list.Rooms) == 0 {
		fmt.Fprintln(w, color.Yellow.Render("No active rooms."))
		return
	}

	table := newTable(w, "Room", "Members")
	for _, r := range list.Rooms {
		table.Append([]string{r.Room, strconv.Itoa(r.Members)})
	}
	table.SetFooter([]string{"Total", strconv.Itoa(list.Total)})
	table.Render()
}

func renderRoster(w io.Writer, data chat.RoomData) {
	fmt.Fprintln(w, color.New(color.FgGreen, color.OpBold).Render("Room "+data.Room))

	if len(data.Users) == 0 {
		fmt.Fprintln(w, color.Yellow.Render("Nobody is here."))
		return
	}

	table := newTable(w, "#", "Username")
	for i, u := range data.Users {
		table.Append([]string{strconv.Itoa(i + 1), u.Username})
	}
	table.Render()
}
