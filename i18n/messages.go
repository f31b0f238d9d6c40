package i18n

// en holds the default message templates, keyed by issue code.
var en = map[string]string{
	"any.required": `"{{label}}" is required`,
	"any.unknown":  `"{{label}}" is not allowed`,
	"any.only":     `"{{label}}" must be one of {{valids}}`,
	"any.invalid":  `"{{label}}" contains an invalid value`,
	"any.custom":   `"{{label}}" failed custom validation because {{error}}`,
	"any.schema":   `"{{label}}" references a schema that could not be resolved: {{error}}`,

	"string.base":         `"{{label}}" must be a string`,
	"string.min":          `"{{label}}" length must be at least {{limit}} characters long`,
	"string.max":          `"{{label}}" length must be less than or equal to {{limit}} characters long`,
	"string.length":       `"{{label}}" length must be {{limit}} characters long`,
	"string.email":        `"{{label}}" must be a valid email`,
	"string.pattern.base": `"{{label}}" with value "{{value}}" fails to match the required pattern: {{regex}}`,
	"string.pattern.name": `"{{label}}" with value "{{value}}" fails to match the {{name}} pattern`,
	"string.guid":         `"{{label}}" must be a valid GUID`,
	"string.alphanum":     `"{{label}}" must only contain alpha-numeric characters`,
	"string.lowercase":    `"{{label}}" must only contain lowercase characters`,
	"string.uppercase":    `"{{label}}" must only contain uppercase characters`,
	"string.trim":         `"{{label}}" must not have leading or trailing whitespace`,
	"string.uri":          `"{{label}}" must be a valid uri`,
	"string.ip":           `"{{label}}" must be a valid ip address`,
	"string.hex":          `"{{label}}" must only contain hexadecimal characters`,

	"number.base":     `"{{label}}" must be a number`,
	"number.infinity": `"{{label}}" cannot be infinity`,
	"number.min":      `"{{label}}" must be greater than or equal to {{limit}}`,
	"number.max":      `"{{label}}" must be less than or equal to {{limit}}`,
	"number.greater":  `"{{label}}" must be greater than {{limit}}`,
	"number.less":     `"{{label}}" must be less than {{limit}}`,
	"number.integer":  `"{{label}}" must be an integer`,
	"number.positive": `"{{label}}" must be a positive number`,
	"number.negative": `"{{label}}" must be a negative number`,
	"number.multiple": `"{{label}}" must be a multiple of {{multiple}}`,
	"number.port":     `"{{label}}" must be a valid port`,

	"boolean.base": `"{{label}}" must be a boolean`,

	"date.base":    `"{{label}}" must be a valid date`,
	"date.min":     `"{{label}}" must be greater than or equal to "{{limit}}"`,
	"date.max":     `"{{label}}" must be less than or equal to "{{limit}}"`,
	"date.greater": `"{{label}}" must be greater than "{{limit}}"`,
	"date.less":    `"{{label}}" must be less than "{{limit}}"`,

	"function.base":  `"{{label}}" must be of type function`,
	"function.arity": `"{{label}}" must have an arity of {{n}}`,

	"array.base":     `"{{label}}" must be an array`,
	"array.min":      `"{{label}}" must contain at least {{limit}} items`,
	"array.max":      `"{{label}}" must contain less than or equal to {{limit}} items`,
	"array.length":   `"{{label}}" must contain {{limit}} items`,
	"array.unique":   `"{{label}}" contains a duplicate value`,
	"array.includes": `"{{label}}" does not match any of the allowed types`,

	"object.base":    `"{{label}}" must be of type object`,
	"object.unknown": `"{{label}}" is not allowed`,
	"object.and":     `"{{label}}" contains {{present}} without its required peers {{missing}}`,
	"object.nand":    `"{{main}}" must not exist simultaneously with {{peers}}`,
	"object.missing": `"{{label}}" must contain at least one of {{peers}}`,
	"object.xor":     `"{{label}}" contains a conflict between exclusive peers {{peers}}`,
	"object.oxor":    `"{{label}}" contains a conflict between optional exclusive peers {{peers}}`,
	"object.with":    `"{{main}}" missing required peer "{{peer}}"`,
	"object.without": `"{{main}}" conflict with forbidden peer "{{peer}}"`,
}

var ja = map[string]string{
	"any.required":   `"{{label}}" は必須です`,
	"any.unknown":    `"{{label}}" は許可されていません`,
	"any.only":       `"{{label}}" は {{valids}} のいずれかである必要があります`,
	"any.invalid":    `"{{label}}" に不正な値が含まれています`,
	"string.base":    `"{{label}}" は文字列である必要があります`,
	"string.min":     `"{{label}}" は {{limit}} 文字以上である必要があります`,
	"string.max":     `"{{label}}" は {{limit}} 文字以下である必要があります`,
	"string.length":  `"{{label}}" は {{limit}} 文字である必要があります`,
	"string.email":   `"{{label}}" は有効なメールアドレスである必要があります`,
	"number.base":    `"{{label}}" は数値である必要があります`,
	"number.min":     `"{{label}}" は {{limit}} 以上である必要があります`,
	"number.max":     `"{{label}}" は {{limit}} 以下である必要があります`,
	"boolean.base":   `"{{label}}" は真偽値である必要があります`,
	"date.base":      `"{{label}}" は有効な日付である必要があります`,
	"array.base":     `"{{label}}" は配列である必要があります`,
	"object.base":    `"{{label}}" はオブジェクトである必要があります`,
	"object.unknown": `"{{label}}" は許可されていません`,
}
