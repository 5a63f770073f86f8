package commands

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

const hourMs = int64(3_600_000)

// fakePortal serves the endpoints the commands call.
type fakePortal struct {
	mu    sync.Mutex
	saved []map[string]interface{}
	role  string
}

func (p *fakePortal) handler(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	w.Header().Set("Content-Type", "application/json")

	switch parts[0] {
	case "login_app_ssgg":
		var body map[string]string
		data, _ := io.ReadAll(r.Body)
		_ = sonic.Unmarshal(data, &body)
		if body["PASSWORD"] != "secret" {
			fmt.Fprint(w, `{"success":false,"data":{"error":"Usuario o contraseña incorrectos"}}`)
			return
		}
		p.mu.Lock()
		role := p.role
		p.mu.Unlock()
		fmt.Fprintf(w, `{"success":true,"data":{"ROL":%q,"NAME":%q,"EMPRESA":"Ariztia"}}`, role, body["USER"])

	case "getconsumoshidricos_ts":
		start, _ := strconv.ParseInt(parts[3], 10, 64)
		end, _ := strconv.ParseInt(parts[4], 10, 64)
		var readings []string
		for ts := (start + hourMs - 1) / hourMs * hourMs; ts <= end; ts += hourMs {
			readings = append(readings, fmt.Sprintf(`{"timestamp":%d,"totalizador":%d}`, ts, ts/hourMs))
		}
		fmt.Fprintf(w, `{"data":{"data":[%s]}}`, strings.Join(readings, ","))

	case "no_conformidades":
		fmt.Fprint(w, `{"data":[
			{"N_FOLIO":1,"USUARIO":"ana","ANNIO":2025,"MES":"Marzo","FECHA_DETECCION":"10-03-2025","AREA":"Calidad","TIPO_NC":"Proceso","ESTADO":"Abierta"},
			{"N_FOLIO":2,"USUARIO":"luis","ANNIO":2025,"MES":"Febrero","FECHA_DETECCION":"03-02-2025","AREA":"Faena","TIPO_NC":"Producto","ESTADO":"Cerrada"}
		]}`)

	case "no_conformidades_crud":
		var body map[string]interface{}
		data, _ := io.ReadAll(r.Body)
		_ = sonic.Unmarshal(data, &body)
		p.mu.Lock()
		p.saved = append(p.saved, body)
		p.mu.Unlock()
		fmt.Fprint(w, `{"success":true}`)

	default:
		http.NotFound(w, r)
	}
}

func (p *fakePortal) setRole(role string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.role = role
}

func (p *fakePortal) Saved() []map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]map[string]interface{}(nil), p.saved...)
}

// setupCLI points the commands at a fake portal under a temporary HOME.
func setupCLI(t *testing.T) *fakePortal {
	t.Helper()
	portal := &fakePortal{role: "ADMIN"}
	server := httptest.NewServer(http.HandlerFunc(portal.handler))
	t.Cleanup(server.Close)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SSGG_BASE_URL", server.URL)
	t.Setenv("SSGG_TIMEZONE", "UTC")
	return portal
}

// execute runs the root command with fresh flag and viper state.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetCommandState(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetCommandState(root *cobra.Command) {
	viper.Reset()
	if err := viper.BindPFlags(root.PersistentFlags()); err != nil {
		panic(err)
	}
	var reset func(c *cobra.Command)
	reset = func(c *cobra.Command) {
		for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			})
		}
		for _, sub := range c.Commands() {
			reset(sub)
		}
	}
	reset(root)
}

func login(t *testing.T) {
	t.Helper()
	_, err := execute(t, "login", "--user", "ana", "--password", "secret")
	require.NoError(t, err)
}
