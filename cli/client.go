// Package cli contains all business logic needed by the CLI command.
package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/pinmux/components/pinmux"
)

// pinmuxClient talks to the HTTP control surface of a pinmux server.
type pinmuxClient struct {
	c       *cli.Context
	baseURL *url.URL
	http    *http.Client
}

func newPinmuxClient(c *cli.Context) (*pinmuxClient, error) {
	baseURL, err := url.Parse(c.String(generalFlagAddr))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid --%s", generalFlagAddr)
	}
	return &pinmuxClient{
		c:       c,
		baseURL: baseURL,
		http:    &http.Client{Timeout: c.Duration(generalFlagTimeout)},
	}, nil
}

func (pc *pinmuxClient) url(elem ...string) string {
	return pc.baseURL.JoinPath(elem...).String()
}

func (pc *pinmuxClient) do(method, target string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(pc.c.Context, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	resp, err := pc.http.Do(req)
	if err != nil {
		return nil, err
	}
	//nolint:errcheck
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("%s %s: %s: %s", method, target, resp.Status, strings.TrimSpace(string(respBody)))
	}
	return respBody, nil
}

func (pc *pinmuxClient) printf(format string, args ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(pc.c.App.Writer, format, args...)
}

// ListDevicesAction prints a table of every device and its declared states, marking the active one.
func ListDevicesAction(c *cli.Context) error {
	pc, err := newPinmuxClient(c)
	if err != nil {
		return err
	}
	body, err := pc.do(http.MethodGet, pc.url("devices"), nil)
	if err != nil {
		return err
	}
	var statuses []pinmux.Status
	if err := json.Unmarshal(body, &statuses); err != nil {
		return errors.Wrap(err, "failed to decode device list")
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Device", "#", "State", "Active", "Error"})
	for _, st := range statuses {
		if len(st.States) == 0 {
			t.AppendRow(table.Row{st.Name, "", "", "", ""})
		}
		for _, entry := range st.States {
			marker := ""
			if st.HasActive && entry.Index == st.Active {
				marker = "*"
			}
			t.AppendRow(table.Row{st.Name, entry.Index, entry.Name, marker, entry.Error})
		}
		t.AppendSeparator()
	}
	pc.printf("%s\n", t.Render())
	return nil
}

// GetStateAction prints the active index of a device.
func GetStateAction(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return errors.New("expected exactly one argument: <device>")
	}
	pc, err := newPinmuxClient(c)
	if err != nil {
		return err
	}
	body, err := pc.do(http.MethodGet, pc.url("devices", c.Args().First(), "pin_mux"), nil)
	if err != nil {
		return err
	}
	pc.printf("%s", body)
	return nil
}

// SetStateAction writes a new index to a device.
func SetStateAction(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return errors.New("expected exactly two arguments: <device> <index>")
	}
	pc, err := newPinmuxClient(c)
	if err != nil {
		return err
	}
	device := c.Args().Get(0)
	if _, err := pc.do(http.MethodPut, pc.url("devices", device, "pin_mux"), []byte(c.Args().Get(1)+"\n")); err != nil {
		return err
	}
	body, err := pc.do(http.MethodGet, pc.url("devices", device, "pin_mux"), nil)
	if err != nil {
		return err
	}
	pc.printf("%s: %s", device, body)
	return nil
}
