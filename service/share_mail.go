package service

import (
	"fmt"
	"time"
	"xendpal/file-api/model"

	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
)

const shareMailSubject = "Xendpal File Share"

// SendShareMail delivers the notification email for one share action.
// It runs on the task queue, so a dead SMTP server costs a log line and
// nothing else.
func SendShareMail(recipient, sharerEmail string, upload *model.Upload, description string) error {
	host := viper.GetString("mail.host")
	if host == "" {
		return fmt.Errorf("no mail host configured, dropping notification for %v", recipient)
	}

	from := viper.GetString("mail.user")

	var scheme string
	if viper.GetBool("host.ssl.enabled") {
		scheme = "https"
	} else {
		scheme = "http"
	}

	fileLink := fmt.Sprintf("%v://%v/%v", scheme, viper.GetString("host.domain"), upload.Path)

	body := fmt.Sprintf(
		"<p>%v shared <b>%v</b> with you.</p>"+
			"<p>%v</p>"+
			"<p>Download it <a href='%v'>here</a>.</p>"+
			"<p>&copy; %v Xendpal</p>",
		sharerEmail, upload.Name, description, fileLink, time.Now().Year(),
	)

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", shareMailSubject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(host, viper.GetInt("mail.port"), from, viper.GetString("mail.password"))

	if err := d.DialAndSend(m); err != nil {
		return err
	}

	return nil
}
