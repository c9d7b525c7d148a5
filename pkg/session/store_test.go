package session_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/session"
)

var _ = Describe("Store", func() {
	var (
		store *session.Store
		app   *fiber.App
	)

	BeforeEach(func() {
		store = session.New(time.Hour)
		app = fiber.New()

		app.Post("/save", func(c *fiber.Ctx) error {
			var messages []llm.Message
			if err := json.Unmarshal(c.Body(), &messages); err != nil {
				return c.SendStatus(fiber.StatusBadRequest)
			}

			if err := store.Save(c, messages); err != nil {
				return c.SendStatus(fiber.StatusInternalServerError)
			}

			return c.SendStatus(fiber.StatusOK)
		})

		app.Get("/load", func(c *fiber.Ctx) error {
			messages, err := store.Load(c)
			if err != nil {
				return c.SendStatus(fiber.StatusInternalServerError)
			}

			return c.JSON(messages)
		})

		app.Post("/clear", func(c *fiber.Ctx) error {
			if err := store.Clear(c); err != nil {
				return c.SendStatus(fiber.StatusInternalServerError)
			}

			return c.SendStatus(fiber.StatusOK)
		})
	})

	// do issues a request carrying any cookies from prior responses and
	// returns the response. Cookies accumulate in jar across calls.
	var jar []*http.Cookie

	do := func(method, path, body string) *http.Response {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}

		req := httptest.NewRequest(method, path, reader)
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}

		for _, cookie := range jar {
			req.AddCookie(cookie)
		}

		resp, err := app.Test(req, -1)
		Expect(err).NotTo(HaveOccurred())

		jar = append(jar, resp.Cookies()...)

		return resp
	}

	BeforeEach(func() {
		jar = nil
	})

	It("returns no history for a fresh browser", func() {
		resp := do("GET", "/load", "")
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		var messages []llm.Message
		Expect(json.NewDecoder(resp.Body).Decode(&messages)).To(Succeed())
		Expect(messages).To(BeEmpty())
	})

	It("round-trips history through the session cookie", func() {
		resp := do("POST", "/save", `[{"role":"user","content":"hello"},{"role":"assistant","content":"hi"}]`)
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		resp = do("GET", "/load", "")
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		var messages []llm.Message
		Expect(json.NewDecoder(resp.Body).Decode(&messages)).To(Succeed())
		Expect(messages).To(HaveLen(2))
		Expect(messages[0].Content).To(Equal("hello"))
		Expect(messages[1].Content).To(Equal("hi"))
	})

	It("isolates browsers that carry no cookie", func() {
		resp := do("POST", "/save", `[{"role":"user","content":"secret"}]`)
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		// A request without the cookie jar sees nothing.
		req := httptest.NewRequest("GET", "/load", nil)
		resp, err := app.Test(req, -1)
		Expect(err).NotTo(HaveOccurred())

		var messages []llm.Message
		Expect(json.NewDecoder(resp.Body).Decode(&messages)).To(Succeed())
		Expect(messages).To(BeEmpty())
	})

	It("forgets history after a clear", func() {
		resp := do("POST", "/save", `[{"role":"user","content":"hello"}]`)
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		resp = do("POST", "/clear", "")
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		resp = do("GET", "/load", "")
		var messages []llm.Message
		Expect(json.NewDecoder(resp.Body).Decode(&messages)).To(Succeed())
		Expect(messages).To(BeEmpty())
	})
})
