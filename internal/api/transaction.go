package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fortuna/internal/engine"
	"fortuna/internal/mlmapi"
)

type purchaseParams struct {
	Amount         float64 `json:"amount" binding:"required,gt=0"`
	HashString     string  `json:"hash_string" binding:"required" validate:"required,max=128"`
	ScreenshotPath string  `json:"screenshot_path" validate:"max=250"`
}

type withdrawParams struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type transferParams struct {
	ToCode string  `json:"to_code" binding:"required"`
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// PurchaseSubscription files a payment proof for admin review. The
// transaction hash must be globally unique; replaying someone's hash earns
// a strike, three strikes block the account.
func PurchaseSubscription(c *gin.Context) {
	app, user, ok := currentUser(c)
	if !ok {
		return
	}
	var purchaseP purchaseParams
	if err := c.ShouldBindJSON(&purchaseP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if purchaseP.Amount < mlmapi.CurrentAppConfig.Settings.Limits.MinInvestment {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount below minimum investment"})
		return
	}

	err := app.Db.Transaction(func(tx *gorm.DB) error {
		var locked mlmapi.User
		res := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", user.Id).First(&locked)
		if res.RowsAffected != 1 {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return res.Error
		}

		var pending mlmapi.PendingSubscription
		res = tx.Where("user_id = ?", locked.Id).First(&pending)
		if res.RowsAffected == 1 {
			c.JSON(http.StatusConflict, gin.H{"error": "a payment is already under review"})
			return nil
		}

		hash := mlmapi.TransactionHash{Hash: purchaseP.HashString, UserId: locked.Id}
		res = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&hash)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			if engine.RegisterHashReuse(&locked, mlmapi.CurrentAppConfig.Settings.Limits.HashStrikes) {
				fmt.Println("[purchase] user", locked.Id, "blocked after repeated hash reuse")
			}
			if err := tx.Save(&locked).Error; err != nil {
				return err
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "transaction hash already used"})
			return nil
		}

		locked.ScreenshotPath = purchaseP.ScreenshotPath
		if err := tx.Save(&locked).Error; err != nil {
			return err
		}
		if err := tx.Create(&mlmapi.PendingSubscription{
			UserId:         locked.Id,
			Amount:         purchaseP.Amount,
			HashString:     purchaseP.HashString,
			ScreenshotPath: purchaseP.ScreenshotPath,
		}).Error; err != nil {
			return err
		}
		c.JSON(http.StatusCreated, gin.H{"message": "payment submitted for review"})
		return nil
	})
	if err != nil && !c.Writer.Written() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// GetSubscriptions returns the caller's subscription history and the proof
// still under review, if any.
func GetSubscriptions(c *gin.Context) {
	app, user, ok := currentUser(c)
	if !ok {
		return
	}
	var entries []mlmapi.SubscriptionEntry
	app.Db.Where("user_id = ?", user.Id).Order("created_at DESC").Find(&entries)
	var pending mlmapi.PendingSubscription
	res := app.Db.Where("user_id = ?", user.Id).First(&pending)
	out := gin.H{"entries": entries}
	if res.RowsAffected == 1 {
		out["pending"] = pending
	}
	c.JSON(http.StatusOK, out)
}

// Withdraw files a withdrawal request against the main wallet. The renewal
// reserve stays untouchable while the account is subscribed.
func Withdraw(c *gin.Context) {
	app, user, ok := currentUser(c)
	if !ok {
		return
	}
	var withdrawP withdrawParams
	if err := c.ShouldBindJSON(&withdrawP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if withdrawP.Amount < mlmapi.CurrentAppConfig.Settings.Limits.WithdrawMin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount below withdrawal minimum"})
		return
	}

	var open mlmapi.WithdrawalRequest
	res := app.Db.Where("user_id = ? AND status = ?", user.Id, mlmapi.StatusPending).First(&open)
	if res.RowsAffected == 1 {
		c.JSON(http.StatusConflict, gin.H{"error": "a withdrawal is already pending"})
		return
	}

	if !engine.CanWithdraw(&user, withdrawP.Amount) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient balance"})
		return
	}

	request := mlmapi.WithdrawalRequest{
		UserId: user.Id,
		Amount: withdrawP.Amount,
		Status: mlmapi.StatusPending,
	}
	if err := app.Db.Create(&request).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, request)
}

// GetUserWithdrawals lists the caller's withdrawal requests.
func GetUserWithdrawals(c *gin.Context) {
	app, user, ok := currentUser(c)
	if !ok {
		return
	}
	var requests []mlmapi.WithdrawalRequest
	app.Db.Where("user_id = ?", user.Id).Order("created_at DESC").Find(&requests)
	c.JSON(http.StatusOK, requests)
}

// TransferFunds moves main-wallet balance to another member, typically to
// fund their subscription payment.
func TransferFunds(c *gin.Context) {
	app, user, ok := currentUser(c)
	if !ok {
		return
	}
	var transferP transferParams
	if err := c.ShouldBindJSON(&transferP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := app.Db.Transaction(func(tx *gorm.DB) error {
		var sender mlmapi.User
		res := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", user.Id).First(&sender)
		if res.RowsAffected != 1 {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return res.Error
		}
		var recipient mlmapi.User
		res = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("referral_code = ?", transferP.ToCode).First(&recipient)
		if res.RowsAffected != 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "recipient not found"})
			return nil
		}
		if recipient.Id == sender.Id {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot transfer to yourself"})
			return nil
		}
		if !engine.CanWithdraw(&sender, transferP.Amount) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient balance"})
			return nil
		}
		sender.MainWalletBalance -= transferP.Amount
		recipient.MainWalletBalance += transferP.Amount
		if err := tx.Save(&sender).Error; err != nil {
			return err
		}
		if err := tx.Save(&recipient).Error; err != nil {
			return err
		}
		if err := tx.Create(&mlmapi.TransferHistory{
			FromUserId: sender.Id,
			ToUserId:   recipient.Id,
			Amount:     transferP.Amount,
		}).Error; err != nil {
			return err
		}
		c.JSON(http.StatusOK, gin.H{"message": "transfer complete"})
		return nil
	})
	if err != nil && !c.Writer.Written() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// TransferToMainWallet moves daily-program payouts into the withdrawable
// wallet. While subscribed, at most the renewal reserve's worth may leave
// the program wallet per renewal cycle; the counter resets when a renewal
// is charged.
func TransferToMainWallet(c *gin.Context) {
	app, user, ok := currentUser(c)
	if !ok {
		return
	}
	var withdrawP withdrawParams
	if err := c.ShouldBindJSON(&withdrawP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := app.Db.Transaction(func(tx *gorm.DB) error {
		var locked mlmapi.User
		res := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", user.Id).First(&locked)
		if res.RowsAffected != 1 {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return res.Error
		}
		if locked.WalletBalance < withdrawP.Amount {
			c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient balance"})
			return nil
		}
		if withdrawP.Amount > engine.RemainingCycleAllowance(&locked) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "renewal reserve limit reached for this cycle"})
			return nil
		}
		locked.WalletBalance -= withdrawP.Amount
		locked.MainWalletBalance += withdrawP.Amount
		locked.SubscriptionWithdraw += withdrawP.Amount
		if err := tx.Save(&locked).Error; err != nil {
			return err
		}
		if err := tx.Create(&mlmapi.TransferToMainWalletHistory{
			UserId: locked.Id,
			Amount: withdrawP.Amount,
		}).Error; err != nil {
			return err
		}
		c.JSON(http.StatusOK, gin.H{"message": "transfer complete"})
		return nil
	})
	if err != nil && !c.Writer.Written() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
