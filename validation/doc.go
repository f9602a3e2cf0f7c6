// Package validation validates configuration structs.
//
// Struct tags are checked with go-playground/validator and reported by
// their mapstructure key. The extra "resource" tag accepts any known
// resource type name.
//
//	type Spec struct {
//	    Name      string   `mapstructure:"name" validate:"required"`
//	    Resources []string `mapstructure:"resources" validate:"min=1,dive,resource"`
//	}
//	err := validation.Validate(spec)
//
// Validator collects errors that tags cannot express:
//
//	v := validation.New()
//	v.Unique("caches", names).Merge("selection", policy.Validate())
//	err := v.Err()
package validation
