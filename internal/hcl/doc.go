// Package hcl provides the HCL implementation of config.Loader.
//
// A pipeline file declares variables and tasks:
//
//	variable "target" {
//	  type    = string
//	  default = "linux"
//	}
//
//	task "build" {
//	  kind       = "print"
//	  depends_on = ["fetch"]
//	  dependent  = "publish"
//	  arguments {
//	    message = "building ${var.target}"
//	  }
//	}
//
// The structural attributes (kind, depends_on, dependent) must be literals.
// The `arguments` block is kept as an hcl.Body and decoded by the task kind,
// with variables available as `var.<name>`. Both native syntax (.hcl) and
// JSON syntax (.hcl.json) are accepted.
package hcl
