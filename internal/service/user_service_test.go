package service

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"teambot/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("UserService", func() {
	var (
		repo   *mockUserRepo
		audit  *mockAuditRepo
		svc    UserService
		ctx    context.Context
		secret []byte
	)

	BeforeEach(func() {
		repo = newMockUserRepo()
		audit = &mockAuditRepo{}
		secret = []byte("test-secret")
		svc = NewUserService(repo, audit, &mockTxManager{}, secret)
		ctx = context.Background()
	})

	createReq := func() CreateUserRequest {
		return CreateUserRequest{
			Username:  "alice",
			FirstName: "Alice",
			LastName:  "Martin",
			Email:     "alice@example.com",
			Phone:     "+33600000000",
			Password:  "hunter22",
			Role:      model.RoleMember,
		}
	}

	Describe("CreateUser", func() {
		It("stores the user with a hashed password", func() {
			resp, err := svc.CreateUser(ctx, createReq())

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Username).To(Equal("alice"))
			Expect(resp.Role).To(Equal(model.RoleMember))

			stored, err := repo.GetByEmail(ctx, "alice@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Password).NotTo(Equal("hunter22"))
			Expect(bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("hunter22"))).To(Succeed())
		})

		It("rejects a duplicate username", func() {
			_, err := svc.CreateUser(ctx, createReq())
			Expect(err).NotTo(HaveOccurred())

			dup := createReq()
			dup.Email = "other@example.com"
			_, err = svc.CreateUser(ctx, dup)

			Expect(err).To(MatchError("username already exists"))
		})

		It("rejects a duplicate email", func() {
			_, err := svc.CreateUser(ctx, createReq())
			Expect(err).NotTo(HaveOccurred())

			dup := createReq()
			dup.Username = "alice2"
			_, err = svc.CreateUser(ctx, dup)

			Expect(err).To(MatchError("email already exists"))
		})

		It("rejects a malformed email", func() {
			req := createReq()
			req.Email = "not-an-email"

			_, err := svc.CreateUser(ctx, req)

			Expect(err).To(MatchError("invalid email format"))
		})
	})

	Describe("Login", func() {
		BeforeEach(func() {
			_, err := svc.CreateUser(ctx, createReq())
			Expect(err).NotTo(HaveOccurred())
		})

		It("issues a signed token carrying the user id and role", func() {
			resp, err := svc.Login(ctx, LoginUserRequest{Email: "alice@example.com", Password: "hunter22"})

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.RefreshToken).NotTo(BeEmpty())

			parsed, err := jwt.Parse(resp.Token, func(t *jwt.Token) (interface{}, error) {
				return secret, nil
			})
			Expect(err).NotTo(HaveOccurred())
			claims := parsed.Claims.(jwt.MapClaims)
			Expect(claims["role"]).To(Equal(model.RoleMember))

			stored, err := repo.GetByEmail(ctx, "alice@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(claims["sub"]).To(Equal(stored.ID.String()))
		})

		It("rejects a wrong password without leaking which field failed", func() {
			_, err := svc.Login(ctx, LoginUserRequest{Email: "alice@example.com", Password: "wrong"})
			Expect(err).To(MatchError("invalid email or password"))
		})

		It("rejects an unknown email with the same error", func() {
			_, err := svc.Login(ctx, LoginUserRequest{Email: "ghost@example.com", Password: "hunter22"})
			Expect(err).To(MatchError("invalid email or password"))
		})
	})

	Describe("Refresh", func() {
		var tokens *TokenResponse

		BeforeEach(func() {
			_, err := svc.CreateUser(ctx, createReq())
			Expect(err).NotTo(HaveOccurred())
			tokens, err = svc.Login(ctx, LoginUserRequest{Email: "alice@example.com", Password: "hunter22"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("rotates the refresh token", func() {
			fresh, err := svc.Refresh(ctx, tokens.RefreshToken)

			Expect(err).NotTo(HaveOccurred())
			Expect(fresh.RefreshToken).NotTo(Equal(tokens.RefreshToken))

			// the old token is single use
			_, err = svc.Refresh(ctx, tokens.RefreshToken)
			Expect(err).To(MatchError("invalid refresh token"))
		})

		It("rejects an expired refresh token and discards it", func() {
			stored, err := repo.GetRefreshToken(ctx, tokens.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			stored.ExpiresAt = time.Now().Add(-time.Hour)

			_, err = svc.Refresh(ctx, tokens.RefreshToken)
			Expect(err).To(MatchError("refresh token expired"))

			_, err = repo.GetRefreshToken(ctx, tokens.RefreshToken)
			Expect(err).To(HaveOccurred())
		})

		It("rejects an unknown refresh token", func() {
			_, err := svc.Refresh(ctx, uuid.NewString())
			Expect(err).To(MatchError("invalid refresh token"))
		})
	})

	Describe("Logout", func() {
		It("invalidates the refresh token", func() {
			_, err := svc.CreateUser(ctx, createReq())
			Expect(err).NotTo(HaveOccurred())
			tokens, err := svc.Login(ctx, LoginUserRequest{Email: "alice@example.com", Password: "hunter22"})
			Expect(err).NotTo(HaveOccurred())

			Expect(svc.Logout(ctx, tokens.RefreshToken)).To(Succeed())

			_, err = svc.Refresh(ctx, tokens.RefreshToken)
			Expect(err).To(MatchError("invalid refresh token"))
		})
	})

	Describe("UpdateContact", func() {
		var userID uuid.UUID

		BeforeEach(func() {
			resp, err := svc.CreateUser(ctx, createReq())
			Expect(err).NotTo(HaveOccurred())
			userID = resp.ID
		})

		It("updates phone and email and audits the change", func() {
			resp, err := svc.UpdateContact(ctx, userID, UpdateContactRequest{
				Phone: "+33611111111",
				Email: "alice.new@example.com",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Phone).To(Equal("+33611111111"))
			Expect(resp.Email).To(Equal("alice.new@example.com"))

			Expect(audit.count()).To(Equal(1))
			Expect(audit.entries[0].Action).To(Equal(model.ActionUpdateContact))
			Expect(audit.entries[0].Details).To(ContainSubstring("alice.new@example.com"))
		})

		It("leaves untouched fields alone", func() {
			resp, err := svc.UpdateContact(ctx, userID, UpdateContactRequest{Phone: "+33622222222"})

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Phone).To(Equal("+33622222222"))
			Expect(resp.Email).To(Equal("alice@example.com"))
		})

		It("rejects a malformed email", func() {
			_, err := svc.UpdateContact(ctx, userID, UpdateContactRequest{Email: "nope"})
			Expect(err).To(MatchError("invalid email format"))
		})
	})

	Describe("ListContacts", func() {
		It("returns the contact sheet without sensitive fields", func() {
			_, err := svc.CreateUser(ctx, createReq())
			Expect(err).NotTo(HaveOccurred())

			contacts, total, err := svc.ListContacts(ctx, 1, 50)

			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(1)))
			Expect(contacts).To(ConsistOf(ContactResponse{
				FirstName: "Alice",
				LastName:  "Martin",
				Phone:     "+33600000000",
				Email:     "alice@example.com",
			}))
		})
	})
})
