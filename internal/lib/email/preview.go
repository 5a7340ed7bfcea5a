package email

import "fmt"

// PreviewData holds sample values for every template, used by the local
// preview route.
var PreviewData = map[Template]map[string]string{
	TemplateWelcome: {
		"FullName": "Nguyen Van An",
	},
	TemplateOTP: {
		"Code":          "482913",
		"ExpiryMinutes": "5",
	},
}

// Preview renders name with its sample data.
func Preview(name string) (string, error) {
	data, ok := PreviewData[Template(name)]
	if !ok {
		return "", fmt.Errorf("unknown email template %q", name)
	}
	return Render(Template(name), data)
}
