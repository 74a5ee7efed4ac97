package httpapi_test

import (
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/config"
)

func TestFinalizePurchase(t *testing.T) {
	cases := []struct {
		name      string
		body      string
		status    int
		ok        bool
		message   string
		variant   int64
		wantStock int
	}{
		{"single line", `{"products":[{"id":101,"quantity":2}]}`, http.StatusOK, true, "purchase completed", 101, 3},
		{"not enough stock", `{"products":[{"id":101,"quantity":10}]}`, http.StatusBadRequest, false, "available: 5, requested: 10", 101, 5},
		{"unknown variant", `{"products":[{"id":999,"quantity":1}]}`, http.StatusBadRequest, false, "999 not found", 101, 5},
		{"bad id", `{"products":[{"id":"abc","quantity":2}]}`, http.StatusBadRequest, false, "id must be an integer", 101, 5},
		{"empty cart", `{"products":[]}`, http.StatusBadRequest, false, "no valid products", 101, 5},
		{"later line fails first pass", `{"products":[{"id":101,"quantity":1},{"id":302,"quantity":1}]}`, http.StatusBadRequest, false, "variant ID 302", 101, 5},
		{"two lines", `{"products":[{"id":101,"quantity":5},{"id":201,"quantity":4}]}`, http.StatusOK, true, "purchase completed", 201, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestApp(t, nil)
			resp, body := env.do(t, jsonReq("POST", "/finalizar-compra", tc.body))
			assert.Equal(t, tc.status, resp.StatusCode, string(body))
			r := result(t, body)
			assert.Equal(t, tc.ok, r.OK)
			assert.Contains(t, r.Message, tc.message)
			assert.Equal(t, tc.wantStock, env.stock(t, tc.variant))
		})
	}
}

func TestFinalizePurchaseValidatesBeforeTouchingStore(t *testing.T) {
	env := newTestApp(t, nil)
	require.NoError(t, env.db.Close())

	resp, body := env.do(t, jsonReq("POST", "/finalizar-compra", `{"products":[{"id":"abc","quantity":2}]}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, result(t, body).Message, "id must be an integer")
}

func TestFinalizePurchaseHidesStoreFailures(t *testing.T) {
	env := newTestApp(t, nil)
	require.NoError(t, env.db.Close())

	var body []byte
	logs := captureLogs(t, func() {
		var resp *http.Response
		resp, body = env.do(t, jsonReq("POST", "/finalizar-compra", `{"products":[{"id":101,"quantity":1}]}`))
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
	r := result(t, body)
	assert.False(t, r.OK)
	assert.Equal(t, "internal error while processing the purchase", r.Message)
	assert.NotContains(t, string(body), "sql")

	e, ok := findAction(logs, "checkout.fail")
	require.True(t, ok)
	assert.Equal(t, "error", e.Level)
	assert.NotEmpty(t, e.Err)
}

func TestFinalizePurchaseConcurrentBuyers(t *testing.T) {
	env := newTestApp(t, nil)

	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := env.app.Test(jsonReq("POST", "/finalizar-compra", `{"products":[{"id":101,"quantity":3}]}`), -1)
			if err == nil {
				codes[i] = resp.StatusCode
			}
		}(i)
	}
	wg.Wait()

	assert.ElementsMatch(t, []int{http.StatusOK, http.StatusBadRequest}, codes)
	assert.Equal(t, 2, env.stock(t, 101))
}

func TestFinalizePurchaseIsAudited(t *testing.T) {
	env := newTestApp(t, nil)

	logs := captureLogs(t, func() {
		env.do(t, jsonReq("POST", "/finalizar-compra", `{"products":[{"id":301,"quantity":1}]}`))
		env.do(t, jsonReq("POST", "/finalizar-compra", `{"products":[{"id":301,"quantity":0}]}`))
		env.do(t, jsonReq("POST", "/finalizar-compra", `{"products":[{"id":302,"quantity":1}]}`))
	})

	ok, found := findAction(logs, "checkout.success")
	require.True(t, found)
	assert.Equal(t, "audit", ok.Level)
	assert.NotEmpty(t, ok.ReqID)

	invalid, found := findAction(logs, "checkout.invalid")
	require.True(t, found)
	assert.Equal(t, "warn", invalid.Level)

	rejected, found := findAction(logs, "checkout.rejected")
	require.True(t, found)
	assert.Contains(t, rejected.Fields["error"], "available: 0, requested: 1")
}

func TestFinalizePurchaseRateLimit(t *testing.T) {
	env := newTestApp(t, func(c *config.Config) { c.CheckoutRate = 2 })

	for i := 0; i < 3; i++ {
		resp, _ := env.do(t, jsonReq("POST", "/finalizar-compra", `{"products":[{"id":301,"quantity":1}]}`))
		if i < 2 {
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		} else {
			assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		}
	}
	assert.Equal(t, 8, env.stock(t, 301))
}
