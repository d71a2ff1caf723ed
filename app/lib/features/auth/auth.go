package auth

import (
	"github.com/a-h/templ"

	"github.com/helixlab/helixdash/app/lib/components/button"
	"github.com/helixlab/helixdash/app/lib/components/form"
	"github.com/helixlab/helixdash/app/lib/utils"
)

// ResponseTarget is where HX-Retarget sends form errors.
const ResponseTarget = "#auth-response"

type SignInProps struct {
	Next  string
	Email string
}

type SignUpProps struct {
	Name  string
	Email string
}

type ResetProps struct {
	Token string
}

func card(title, subtitle string, body templ.Component) templ.Component {
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<section class="auth-card mx-auto mt-8 max-w-md rounded-lg border bg-white p-6 shadow-sm">`)
		w.Raw(`<h1 class="text-xl font-semibold">`)
		w.Text(title)
		w.Raw("</h1>")
		if subtitle != "" {
			w.Raw(`<p class="mt-1 text-sm text-slate-500">`)
			w.Text(subtitle)
			w.Raw("</p>")
		}
		w.Raw(`<div id="auth-response" class="mt-4"></div>`)
		w.Render(body)
		w.Raw("</section>")
	})
}

func openForm(w *utils.Writer, id, action string) {
	w.Raw("<form")
	w.Attr("id", id)
	w.Attr("method", "post")
	w.Attr("action", action)
	w.Attr("hx-post", action)
	w.Attr("hx-target", ResponseTarget)
	w.Attr("hx-swap", "innerHTML")
	w.Raw(` class="mt-4 space-y-4">`)
}

func submit(w *utils.Writer, label string) {
	w.Render(button.Button(button.Props{Type: button.TypeSubmit, Label: label, FullWidth: true}))
}

func SignIn(props ...SignInProps) templ.Component {
	var p SignInProps
	if len(props) > 0 {
		p = props[0]
	}
	return card("Sign in", "Use your HelixDash account to open the workspace.", utils.Component(func(w *utils.Writer) {
		openForm(w, "login-form", "/auth/signin")
		if p.Next != "" {
			w.Raw(`<input type="hidden" name="next"`)
			w.Attr("value", p.Next)
			w.Raw(">")
		}
		w.Render(form.Input(form.InputProps{Name: "email", Type: "email", Label: "Email", Value: p.Email, Required: true, Autocomplete: "email"}))
		w.Render(form.Input(form.InputProps{Name: "password", Type: "password", Label: "Password", Required: true, Autocomplete: "current-password"}))
		submit(w, "Sign in")
		w.Raw("</form>")
		w.Raw(`<div class="mt-4 flex justify-between text-sm"><a href="/auth/forgot-password" class="text-emerald-700 hover:underline">Forgot password?</a><a href="/auth/signup" class="text-emerald-700 hover:underline">Create an account</a></div>`)
	}))
}

func SignUp(props ...SignUpProps) templ.Component {
	var p SignUpProps
	if len(props) > 0 {
		p = props[0]
	}
	return card("Create an account", "", utils.Component(func(w *utils.Writer) {
		openForm(w, "signup-form", "/auth/signup")
		w.Render(form.Input(form.InputProps{Name: "name", Label: "Name", Value: p.Name, Autocomplete: "name"}))
		w.Render(form.Input(form.InputProps{Name: "email", Type: "email", Label: "Email", Value: p.Email, Required: true, Autocomplete: "email"}))
		w.Render(form.Input(form.InputProps{Name: "password", Type: "password", Label: "Password", Required: true, Autocomplete: "new-password", Help: "At least 8 characters."}))
		w.Render(form.Input(form.InputProps{Name: "confirm_password", Type: "password", Label: "Confirm password", Required: true, Autocomplete: "new-password"}))
		submit(w, "Sign up")
		w.Raw("</form>")
		w.Raw(`<p class="mt-4 text-sm">Already registered? <a href="/auth/signin" class="text-emerald-700 hover:underline">Sign in</a></p>`)
	}))
}

func ForgotPassword() templ.Component {
	return card("Reset your password", "We will email you a link to choose a new password.", utils.Component(func(w *utils.Writer) {
		openForm(w, "forgot-form", "/auth/forgot-password")
		w.Render(form.Input(form.InputProps{Name: "email", Type: "email", Label: "Email", Required: true, Autocomplete: "email"}))
		submit(w, "Send reset link")
		w.Raw("</form>")
		w.Raw(`<p class="mt-4 text-sm"><a href="/auth/signin" class="text-emerald-700 hover:underline">Back to sign in</a></p>`)
	}))
}

func ResetPassword(p ResetProps) templ.Component {
	return card("Choose a new password", "", utils.Component(func(w *utils.Writer) {
		openForm(w, "reset-form", "/auth/reset-password")
		w.Raw(`<input type="hidden" name="token"`)
		w.Attr("value", p.Token)
		w.Raw(">")
		w.Render(form.Input(form.InputProps{Name: "password", Type: "password", Label: "New password", Required: true, Autocomplete: "new-password"}))
		w.Render(form.Input(form.InputProps{Name: "confirm_password", Type: "password", Label: "Confirm password", Required: true, Autocomplete: "new-password"}))
		submit(w, "Update password")
		w.Raw("</form>")
	}))
}

// Sent confirms a request whose outcome arrives by email.
func Sent(message string) templ.Component {
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<p class="sent rounded-md bg-emerald-50 p-3 text-sm text-emerald-900">`)
		w.Text(message)
		w.Raw("</p>")
	})
}
