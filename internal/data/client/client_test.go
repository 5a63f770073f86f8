package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{BaseURL: server.URL, Token: "secret", Timeout: 2 * time.Second})
}

func TestNewDefaults(t *testing.T) {
	c := New(Config{})
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, DefaultToken, c.token)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
}

func TestFetchWater(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getconsumoshidricos_ts/M3_PANTALON_POLLO/m2/100/200", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = io.WriteString(w, `{"data":{"data":[{"timestamp":150,"totalizador":"10.5"},{"timestamp":160,"totalizador":11}]}}`)
	})

	got, err := c.FetchWater(context.Background(), model.SeriesPollo, "m2", model.Interval{Start: 100, End: 200})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, float64(150), got[0].Timestamp)
	assert.Equal(t, "10.5", got[0].Totalizador)
	assert.Equal(t, float64(11), got[1].Totalizador)
}

func TestFetchWaterEmptyBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{}}`)
	})
	got, err := c.FetchWater(context.Background(), model.SeriesPavo, "m2", model.Interval{Start: 1, End: 2})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		errIs   error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			errIs: ErrStatus,
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `<html>`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.FetchWater(context.Background(), model.SeriesPollo, "m2", model.Interval{Start: 1, End: 2})
			require.Error(t, err)
			if tt.errIs != nil {
				assert.ErrorIs(t, err, tt.errIs)
			}
		})
	}
}

func TestFetchDowntimeFiltersResponsible(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getdetenciones_mes_annio/2025/Mar", r.URL.Path)
		_, _ = io.WriteString(w, `{"success":true,"data":{"data":[
			{"Fecha":"2025-03-04","Desc Responsable":" SSGG ","Minutos":12,"Desc Area":" Faena"},
			{"Fecha":"2025-03-05","Desc Responsable":"MANTENCION","Minutos":30}
		]}}`)
	})

	got, err := c.FetchDowntime(context.Background(), "2025", "Mar")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Faena", got[0].Area)
	assert.Equal(t, "04", got[0].Day)
	assert.Equal(t, "04-03-2025", got[0].Date)
	assert.Equal(t, 12.0, float64(got[0].Minutes))
}

func TestFetchDowntimeUnsuccessful(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"data":{"data":[{"Desc Responsable":"SSGG"}]}}`)
	})
	got, err := c.FetchDowntime(context.Background(), "2025", "Mar")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetchContactAndNonConformities(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/contacto_directo_indirecto":
			_, _ = io.WriteString(w, `{"data":[{"ANNIO":2025,"SALA_A":0.1}]}`)
		case "/no_conformidades":
			_, _ = io.WriteString(w, `{"data":[{"N_FOLIO":7,"AREA":" Faena ","FECHA_DETECCION":"03-04-2025","MES":"Abril","ANNIO":"2025"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	rows, err := c.FetchContact(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 0.1, rows[0]["SALA_A"])

	ncs, err := c.FetchNonConformities(context.Background())
	require.NoError(t, err)
	require.Len(t, ncs, 1)
	assert.Equal(t, "Faena", ncs[0].Area)
	assert.Equal(t, "03", ncs[0].Day)
	assert.Equal(t, model.FlexString("7"), ncs[0].Folio)
}

func TestSaveNonConformity(t *testing.T) {
	var received map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/no_conformidades_crud", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, sonic.Unmarshal(body, &received))
		_, _ = io.WriteString(w, `{"success":true}`)
	})

	nc := model.NonConformity{Folio: "12", User: "jperez", Detected: "09-04-2025", Area: "Faena "}
	require.NoError(t, c.SaveNonConformity(context.Background(), nc, ""))
	assert.Equal(t, "12", received["N_FOLIO"])
	assert.Equal(t, "Faena", received["AREA"])
	assert.NotContains(t, received, "N_FOLIO_ORIGINAL")

	require.NoError(t, c.SaveNonConformity(context.Background(), nc, "11"))
	assert.Equal(t, "11", received["N_FOLIO_ORIGINAL"])
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantRole string
		errIs    error
	}{
		{
			name:     "success",
			response: `{"success":true,"data":{"ROL":"ADMIN","NAME":"Juan","EMPRESA":"Ariztia"}}`,
			wantRole: "ADMIN",
		},
		{
			name:     "rejected",
			response: `{"success":false,"data":{"error":"Usuario o clave incorrecta"}}`,
			errIs:    model.ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				var body map[string]string
				raw, _ := io.ReadAll(r.Body)
				require.NoError(t, sonic.Unmarshal(raw, &body))
				assert.Equal(t, AppName, body["NAMEAPP"])
				assert.Equal(t, "juan", body["USER"])
				_, _ = io.WriteString(w, tt.response)
			})

			s, err := c.Login(context.Background(), "juan", "pw")
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
				assert.Contains(t, err.Error(), "Usuario o clave incorrecta")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, s.Role())
			assert.Equal(t, "Juan", s.User())
			assert.Equal(t, "Ariztia", s.Company())
		})
	}
}

func TestLoginConnectionError(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	_, err := c.Login(context.Background(), "a", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error de conexion con el servidor")
}

func TestConcurrencyLimit(t *testing.T) {
	var inFlight, peak int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		_, _ = io.WriteString(w, `{"data":[]}`)
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.FetchContact(context.Background())
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(DefaultMaxConcurrent))
}

func TestQueuedRequestsKeepTheirTimeout(t *testing.T) {
	var served int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		atomic.AddInt32(&served, 1)
		_, _ = io.WriteString(w, `{"data":[]}`)
	}))
	t.Cleanup(server.Close)
	c := New(Config{BaseURL: server.URL, Timeout: 150 * time.Millisecond, MaxConcurrent: 1})

	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		go func() {
			_, err := c.FetchContact(context.Background())
			errs <- err
		}()
	}
	for i := 0; i < 3; i++ {
		assert.NoError(t, <-errs)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&served))
}
