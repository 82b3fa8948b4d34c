package api

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"fortuna/internal/api/jwt"
	"fortuna/internal/engine"
	"fortuna/internal/mailer"
	"fortuna/internal/mlmapi"
	"fortuna/internal/store"
)

type signupParams struct {
	Name        string `json:"name" binding:"required" validate:"required,max=100"`
	Email       string `json:"email" binding:"required,email" validate:"required,max=150"`
	PhoneNo     string `json:"phone_no" validate:"max=20"`
	Password    string `json:"password" binding:"required,min=8" validate:"required,max=72"`
	SponsorCode string `json:"sponsor_code" binding:"required" validate:"required,max=12"`
}

type otpParams struct {
	Email string `json:"email" binding:"required,email"`
	Otp   string `json:"otp" binding:"required"`
}

type loginParams struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type resetParams struct {
	Email    string `json:"email" binding:"required,email"`
	Otp      string `json:"otp" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type changePasswordParams struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

var Mail mailer.Mailer

func sendOtpMail(to string, name string, otp string) {
	if Mail == nil {
		Mail = mailer.New()
	}
	if err := Mail.SendOtp(to, name, otp); err != nil {
		fmt.Println("failed to send otp mail:", err)
	}
}

// Signup registers a customer under a sponsor. The account stays unverified
// until the mailed otp comes back.
func Signup(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)
	var signupP signupParams
	if err := c.ShouldBindJSON(&signupP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var sponsor mlmapi.User
	res := app.Db.Where("referral_code = ?", signupP.SponsorCode).First(&sponsor)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sponsor code"})
		return
	}

	var double mlmapi.User
	res = app.Db.Where("email = ?", signupP.Email).First(&double)
	if res.RowsAffected == 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email already registered"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(signupP.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	eng := appEngine(app)
	code, err := eng.GenerateReferralCode(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	otp := newOtp()
	user := mlmapi.User{
		Name:         signupP.Name,
		Email:        signupP.Email,
		PhoneNo:      signupP.PhoneNo,
		Password:     string(hashed),
		Otp:          otp,
		SponsorCode:  sponsor.ReferralCode,
		SponsorName:  sponsor.Name,
		ReferralCode: code,
		Ancestry:     append(append(mlmapi.CodePath{}, sponsor.Ancestry...), sponsor.ReferralCode),
	}
	res = app.Db.Create(&user)
	if res.Error != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": res.Error.Error()})
		return
	}
	fmt.Println("[[New Sign Up]] code:", code, "sponsor:", sponsor.ReferralCode)

	// index the first ancestor levels right away, deeper levels are
	// built when the first investment is approved
	st := store.NewGorm(app.Db)
	upCode := sponsor.ReferralCode
	for lvl := 0; lvl < engine.SignupIndexDepth && upCode != ""; lvl++ {
		var up mlmapi.User
		res = app.Db.Where("referral_code = ?", upCode).First(&up)
		if res.RowsAffected != 1 {
			break
		}
		_, _ = st.AddReferral(ctx, mlmapi.Referral{
			ReferrerId: up.Id,
			UserId:     user.Id,
			Scope:      mlmapi.RefScopeAll,
			Lvl:        lvl,
			UserName:   user.Name,
			UserCode:   user.ReferralCode,
			JoinedAt:   user.CreatedAt,
		})
		if up.ReferralCode == engine.RootCode {
			break
		}
		upCode = up.SponsorCode
	}

	sendOtpMail(user.Email, user.Name, otp)

	cpUrl := os.Getenv("CP_URL")
	msg := fmt.Sprintf(
		`New Signup [User: %d](%s/users/%d)
Code: %s
Sponsor: %s`,
		user.Id,
		cpUrl,
		user.Id,
		mlmapi.EscapeMarkdownV2(user.ReferralCode),
		mlmapi.EscapeMarkdownV2(user.SponsorCode),
	)
	_ = mlmapi.SendTelegramMessage(msg, "signup")

	c.JSON(http.StatusCreated, gin.H{
		"referral_code": user.ReferralCode,
		"message":       "verification code sent",
	})
}

// VerifyOtp flips the account to verified and hands out the first jwt.
func VerifyOtp(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)
	var otpP otpParams
	if err := c.ShouldBindJSON(&otpP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user mlmapi.User
	res := app.Db.Where("email = ?", otpP.Email).First(&user)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if user.Otp == "" || user.Otp != otpP.Otp {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid code"})
		return
	}
	user.Verified = true
	user.Otp = ""
	app.Db.Save(&user)

	token, err := jwt.GenerateJWT(user.Email, jwt.RoleCustomer)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user": user,
		"jwt":  token,
	})
}

// Login authenticates by email and password.
func Login(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)
	var loginP loginParams
	if err := c.ShouldBindJSON(&loginP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var admin mlmapi.Admin
	res := app.Db.First(&admin)
	if res.RowsAffected == 1 && admin.Maintenance {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "site is under maintenance"})
		return
	}

	var user mlmapi.User
	res = app.Db.Where("email = ?", loginP.Email).First(&user)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(loginP.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if user.Blocked {
		c.JSON(http.StatusForbidden, gin.H{"error": "account blocked"})
		return
	}
	if !user.Verified {
		otp := newOtp()
		user.Otp = otp
		app.Db.Save(&user)
		sendOtpMail(user.Email, user.Name, otp)
		c.JSON(http.StatusForbidden, gin.H{"error": "account not verified, code re-sent"})
		return
	}

	token, err := jwt.GenerateJWT(user.Email, jwt.RoleCustomer)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user": user,
		"jwt":  token,
	})
}

// ForgotPassword mails a reset code.
func ForgotPassword(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)
	var loginP struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&loginP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user mlmapi.User
	res := app.Db.Where("email = ?", loginP.Email).First(&user)
	if res.RowsAffected == 1 {
		otp := newOtp()
		user.Otp = otp
		app.Db.Save(&user)
		sendOtpMail(user.Email, user.Name, otp)
	}
	// same answer whether or not the account exists
	c.JSON(http.StatusOK, gin.H{"message": "reset code sent if the account exists"})
}

// ResetPassword sets a new password against a mailed code.
func ResetPassword(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)
	var resetP resetParams
	if err := c.ShouldBindJSON(&resetP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user mlmapi.User
	res := app.Db.Where("email = ?", resetP.Email).First(&user)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if user.Otp == "" || user.Otp != resetP.Otp {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid code"})
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(resetP.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	user.Password = string(hashed)
	user.Otp = ""
	user.Verified = true
	app.Db.Save(&user)

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// ChangePassword rotates the password for a logged-in user.
func ChangePassword(c *gin.Context) {
	app, user, ok := currentUser(c)
	if !ok {
		return
	}
	var changeP changePasswordParams
	if err := c.ShouldBindJSON(&changeP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(changeP.OldPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(changeP.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	user.Password = string(hashed)
	app.Db.Save(&user)

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
